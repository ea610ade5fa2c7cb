package records

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"campussecurity/internal/ids"
	"campussecurity/internal/model"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the set of records every table starts with.
type Seed struct {
	Users     []model.User          `yaml:"users"`
	Students  []model.Student       `yaml:"students"`
	Visitors  []model.Visitor       `yaml:"visitors"`
	Vehicles  []model.Vehicle       `yaml:"vehicles"`
	LostItems []model.LostItem      `yaml:"lostItems"`
	Events    []model.SecurityEvent `yaml:"events"`
}

// DefaultSeed returns the built-in campus fixtures.
func DefaultSeed() (Seed, error) {
	return ParseSeed(defaultSeed)
}

// LoadSeed reads fixtures from path, or the built-in ones when path is empty.
func LoadSeed(path string) (Seed, error) {
	if path == "" {
		return DefaultSeed()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed %s: %w", path, err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes YAML fixtures and checks ids and enum fields.
func ParseSeed(data []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	if err := s.validate(); err != nil {
		return Seed{}, err
	}
	return s, nil
}

func (s Seed) validate() error {
	seen := map[string]bool{}
	check := func(id, prefix string, width int, err error) error {
		if id == "" {
			return fmt.Errorf("%w: seed record without id", ErrInvalid)
		}
		if !ids.Matches(id, prefix, width) {
			return fmt.Errorf("%w: seed id %s must be %s followed by %d digits", ErrInvalid, id, prefix, width)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate seed id %s", ErrInvalid, id)
		}
		seen[id] = true
		if err != nil {
			return fmt.Errorf("seed %s: %w", id, err)
		}
		return nil
	}
	emails := map[string]bool{}
	for _, u := range s.Users {
		if emails[u.Email] {
			return fmt.Errorf("seed %s: %w", u.ID, ErrDuplicateEmail)
		}
		emails[u.Email] = true
		if err := check(u.ID, ids.PrefixUser, ids.WidthDefault, validateUser(u)); err != nil {
			return err
		}
	}
	for _, st := range s.Students {
		if err := check(st.ID, ids.PrefixStudent, ids.WidthStudent, validateStudent(st)); err != nil {
			return err
		}
	}
	for _, v := range s.Visitors {
		if err := check(v.ID, ids.PrefixVisitor, ids.WidthDefault, validateVisitor(v)); err != nil {
			return err
		}
	}
	for _, v := range s.Vehicles {
		if err := check(v.ID, ids.PrefixVehicle, ids.WidthDefault, validateVehicle(v)); err != nil {
			return err
		}
	}
	for _, item := range s.LostItems {
		if err := check(item.ID, ids.PrefixLostItem, ids.WidthDefault, validateLostItem(item)); err != nil {
			return err
		}
	}
	for _, e := range s.Events {
		if err := check(e.ID, ids.PrefixEvent, ids.WidthDefault, validateEvent(e)); err != nil {
			return err
		}
	}
	return nil
}
