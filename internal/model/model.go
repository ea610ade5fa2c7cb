package model

import "time"

// Role gates what a signed-in user may reach.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSecurity Role = "security"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleAdmin || r == RoleSecurity }

// StudentStatus is the enrolment state of a student.
type StudentStatus string

const (
	StudentActive    StudentStatus = "active"
	StudentInactive  StudentStatus = "inactive"
	StudentSuspended StudentStatus = "suspended"
)

func (s StudentStatus) Valid() bool {
	switch s {
	case StudentActive, StudentInactive, StudentSuspended:
		return true
	}
	return false
}

type VisitorStatus string

const (
	VisitorActive      VisitorStatus = "active"
	VisitorCompleted   VisitorStatus = "completed"
	VisitorBlacklisted VisitorStatus = "blacklisted"
)

func (s VisitorStatus) Valid() bool {
	switch s {
	case VisitorActive, VisitorCompleted, VisitorBlacklisted:
		return true
	}
	return false
}

type VehicleType string

const (
	VehicleStudent VehicleType = "student"
	VehicleStaff   VehicleType = "staff"
	VehicleVisitor VehicleType = "visitor"
	VehicleUnknown VehicleType = "unknown"
)

func (t VehicleType) Valid() bool {
	switch t {
	case VehicleStudent, VehicleStaff, VehicleVisitor, VehicleUnknown:
		return true
	}
	return false
}

type VehicleStatus string

const (
	VehicleInside   VehicleStatus = "inside"
	VehicleDeparted VehicleStatus = "departed"
	VehicleFlagged  VehicleStatus = "flagged"
)

func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleInside, VehicleDeparted, VehicleFlagged:
		return true
	}
	return false
}

type ItemCategory string

const (
	CategoryElectronics ItemCategory = "electronics"
	CategoryClothing    ItemCategory = "clothing"
	CategoryAccessories ItemCategory = "accessories"
	CategoryDocuments   ItemCategory = "documents"
	CategoryOther       ItemCategory = "other"
)

func (c ItemCategory) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryClothing, CategoryAccessories, CategoryDocuments, CategoryOther:
		return true
	}
	return false
}

type ItemStatus string

const (
	ItemUnclaimed ItemStatus = "unclaimed"
	ItemClaimed   ItemStatus = "claimed"
	ItemPending   ItemStatus = "pending"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemUnclaimed, ItemClaimed, ItemPending:
		return true
	}
	return false
}

type EventType string

const (
	EventAccess  EventType = "access"
	EventAlert   EventType = "alert"
	EventSystem  EventType = "system"
	EventVisitor EventType = "visitor"
	EventVehicle EventType = "vehicle"
)

func (t EventType) Valid() bool {
	switch t {
	case EventAccess, EventAlert, EventSystem, EventVisitor, EventVehicle:
		return true
	}
	return false
}

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// User is an operator account. Password is kept in clear text: the user
// table is a fixture, not a credential store.
type User struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Email     string     `json:"email" yaml:"email"`
	Password  string     `json:"password,omitempty" yaml:"password"`
	Role      Role       `json:"role" yaml:"role"`
	Image     string     `json:"image,omitempty" yaml:"image,omitempty"`
	LastLogin *time.Time `json:"lastLogin,omitempty" yaml:"lastLogin,omitempty"`
}

// Public returns a copy of u without its password.
func (u User) Public() User {
	u.Password = ""
	return u
}

// ContactInfo holds how to reach a student.
type ContactInfo struct {
	Email string `json:"email" yaml:"email"`
	Phone string `json:"phone" yaml:"phone"`
}

// Student represents an enrolled student.
type Student struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Department  string        `json:"department" yaml:"department"`
	Year        int           `json:"year" yaml:"year"`
	Image       string        `json:"image" yaml:"image"`
	Status      StudentStatus `json:"status" yaml:"status"`
	ContactInfo ContactInfo   `json:"contactInfo" yaml:"contactInfo"`
	LastSeen    *time.Time    `json:"lastSeen,omitempty" yaml:"lastSeen,omitempty"`
}

// Visitor is a guest checked in at a gate. CheckOut stays nil while active.
type Visitor struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Purpose     string        `json:"purpose" yaml:"purpose"`
	ContactInfo string        `json:"contactInfo" yaml:"contactInfo"`
	Image       string        `json:"image,omitempty" yaml:"image,omitempty"`
	CheckIn     time.Time     `json:"checkIn" yaml:"checkIn"`
	CheckOut    *time.Time    `json:"checkOut,omitempty" yaml:"checkOut,omitempty"`
	Status      VisitorStatus `json:"status" yaml:"status"`
	HostName    string        `json:"hostName,omitempty" yaml:"hostName,omitempty"`
}

// Vehicle is a vehicle logged at a campus entrance.
type Vehicle struct {
	ID           string        `json:"id" yaml:"id"`
	LicensePlate string        `json:"licensePlate" yaml:"licensePlate"`
	Make         string        `json:"make" yaml:"make"`
	Model        string        `json:"model" yaml:"model"`
	Color        string        `json:"color" yaml:"color"`
	Owner        string        `json:"owner,omitempty" yaml:"owner,omitempty"`
	Type         VehicleType   `json:"type" yaml:"type"`
	EntryTime    time.Time     `json:"entryTime" yaml:"entryTime"`
	ExitTime     *time.Time    `json:"exitTime,omitempty" yaml:"exitTime,omitempty"`
	Status       VehicleStatus `json:"status" yaml:"status"`
}

// LostItem is an entry in the lost-and-found registry.
type LostItem struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
	Location    string       `json:"location" yaml:"location"`
	DateFound   time.Time    `json:"dateFound" yaml:"dateFound"`
	Image       string       `json:"image,omitempty" yaml:"image,omitempty"`
	Category    ItemCategory `json:"category" yaml:"category"`
	Status      ItemStatus   `json:"status" yaml:"status"`
	ClaimedBy   string       `json:"claimedBy,omitempty" yaml:"claimedBy,omitempty"`
	ClaimedDate *time.Time   `json:"claimedDate,omitempty" yaml:"claimedDate,omitempty"`
}

// SecurityEvent is one entry of the append-only activity log.
type SecurityEvent struct {
	ID          string    `json:"id" yaml:"id"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	Type        EventType `json:"type" yaml:"type"`
	Description string    `json:"description" yaml:"description"`
	Severity    Severity  `json:"severity" yaml:"severity"`
	RelatedID   string    `json:"relatedId,omitempty" yaml:"relatedId,omitempty"`
}
