package records

import (
	"fmt"
	"strings"

	"campussecurity/internal/model"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func required(fields map[string]string) error {
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			return invalid("%s is required", name)
		}
	}
	return nil
}

func validateUser(u model.User) error {
	if err := required(map[string]string{"name": u.Name, "email": u.Email, "password": u.Password}); err != nil {
		return err
	}
	if !u.Role.Valid() {
		return invalid("unknown role %q", u.Role)
	}
	return nil
}

func validateStudent(s model.Student) error {
	if err := required(map[string]string{"name": s.Name, "department": s.Department}); err != nil {
		return err
	}
	if !s.Status.Valid() {
		return invalid("unknown student status %q", s.Status)
	}
	return nil
}

func validateVisitor(v model.Visitor) error {
	if err := required(map[string]string{"name": v.Name, "purpose": v.Purpose, "contactInfo": v.ContactInfo}); err != nil {
		return err
	}
	if !v.Status.Valid() {
		return invalid("unknown visitor status %q", v.Status)
	}
	if v.Status == model.VisitorActive && v.CheckOut != nil {
		return invalid("active visitor cannot have a check-out time")
	}
	return nil
}

func validateVehicle(v model.Vehicle) error {
	if err := required(map[string]string{"licensePlate": v.LicensePlate, "make": v.Make, "model": v.Model, "color": v.Color}); err != nil {
		return err
	}
	if !v.Type.Valid() {
		return invalid("unknown vehicle type %q", v.Type)
	}
	if !v.Status.Valid() {
		return invalid("unknown vehicle status %q", v.Status)
	}
	return nil
}

func validateLostItem(item model.LostItem) error {
	if err := required(map[string]string{"name": item.Name, "description": item.Description, "location": item.Location}); err != nil {
		return err
	}
	if !item.Category.Valid() {
		return invalid("unknown category %q", item.Category)
	}
	if !item.Status.Valid() {
		return invalid("unknown item status %q", item.Status)
	}
	return nil
}

func validateEvent(e model.SecurityEvent) error {
	if err := required(map[string]string{"description": e.Description}); err != nil {
		return err
	}
	if !e.Type.Valid() {
		return invalid("unknown event type %q", e.Type)
	}
	if !e.Severity.Valid() {
		return invalid("unknown severity %q", e.Severity)
	}
	return nil
}
