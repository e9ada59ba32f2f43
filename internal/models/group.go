package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Group represents a set of users sharing a permission record
type Group struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Members     []string    `json:"members"`
	Permissions Permissions `json:"permissions"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// HasMember reports whether userID belongs to the group
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// Permission sections
const (
	SectionUsers         = "users"
	SectionReports       = "reports"
	SectionHazards       = "hazards"
	SectionChecklists    = "checklists"
	SectionTraining      = "training"
	SectionNotifications = "notifications"
)

// Sections lists the group-controlled sections in display order.
// Notifications is not group-controlled.
var Sections = []string{SectionUsers, SectionReports, SectionHazards, SectionChecklists, SectionTraining}

// PermissionShape discriminates the encoding a permission record was read from
type PermissionShape string

const (
	ShapeLegacy PermissionShape = "legacy"
	ShapeCRUD   PermissionShape = "crud"
)

// CRUD holds the four operation flags of one section
type CRUD struct {
	Create bool `json:"create"`
	Read   bool `json:"read"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

// Granted reports whether the section counts as accessible
func (c CRUD) Granted() bool {
	return c.Create || c.Read
}

// Or merges two flag sets
func (c CRUD) Or(o CRUD) CRUD {
	return CRUD{
		Create: c.Create || o.Create,
		Read:   c.Read || o.Read,
		Update: c.Update || o.Update,
		Delete: c.Delete || o.Delete,
	}
}

type legacyFlag struct {
	section string
	ops     CRUD
}

// legacyFlags maps the old flat booleans onto CRUD operations
var legacyFlags = map[string]legacyFlag{
	"canManageUsers":      {SectionUsers, CRUD{Create: true, Read: true, Update: true, Delete: true}},
	"canViewReports":      {SectionReports, CRUD{Read: true}},
	"canCreateHazards":    {SectionHazards, CRUD{Create: true, Read: true}},
	"canManageChecklists": {SectionChecklists, CRUD{Create: true, Read: true, Update: true, Delete: true}},
	"canViewTraining":     {SectionTraining, CRUD{Read: true}},
}

// Permissions is a group's permission record, always held in CRUD form.
// Shape records which encoding it was decoded from.
type Permissions struct {
	Shape    PermissionShape
	Sections map[string]CRUD
}

type permissionsEnvelope struct {
	Shape    PermissionShape `json:"shape"`
	Sections json.RawMessage `json:"sections"`
}

// NewCRUDPermissions builds a permission record from CRUD sections
func NewCRUDPermissions(sections map[string]CRUD) Permissions {
	p := Permissions{Shape: ShapeCRUD, Sections: make(map[string]CRUD, len(sections))}
	for k, v := range sections {
		p.Sections[k] = v
	}
	return p
}

// NewLegacyPermissions normalizes legacy flags into CRUD sections
func NewLegacyPermissions(flags map[string]bool) Permissions {
	p := Permissions{Shape: ShapeLegacy, Sections: make(map[string]CRUD)}
	for name, on := range flags {
		if !on {
			continue
		}
		lf, ok := legacyFlags[name]
		if !ok {
			continue
		}
		p.Sections[lf.section] = p.Sections[lf.section].Or(lf.ops)
	}
	return p
}

// Section returns the flags for a section, zero when absent
func (p Permissions) Section(name string) CRUD {
	return p.Sections[name]
}

// Clone returns a copy with its own section map
func (p Permissions) Clone() Permissions {
	c := Permissions{Shape: p.Shape, Sections: make(map[string]CRUD, len(p.Sections))}
	for k, v := range p.Sections {
		c.Sections[k] = v
	}
	return c
}

// MarshalJSON always writes the CRUD envelope
func (p Permissions) MarshalJSON() ([]byte, error) {
	sections := p.Sections
	if sections == nil {
		sections = map[string]CRUD{}
	}
	raw, err := json.Marshal(sections)
	if err != nil {
		return nil, err
	}
	return json.Marshal(permissionsEnvelope{Shape: ShapeCRUD, Sections: raw})
}

// UnmarshalJSON accepts the envelope, a bare CRUD map or legacy flags
func (p *Permissions) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = Permissions{Shape: ShapeCRUD, Sections: map[string]CRUD{}}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("permissions must be an object: %w", err)
	}

	if shapeRaw, ok := raw["shape"]; ok {
		if sectionsRaw, ok := raw["sections"]; ok {
			var shape PermissionShape
			if err := json.Unmarshal(shapeRaw, &shape); err == nil {
				return p.decodeEnvelope(shape, sectionsRaw)
			}
		}
	}

	key, err := firstKey(trimmed)
	if err != nil {
		return err
	}
	if key == "" {
		*p = Permissions{Shape: ShapeCRUD, Sections: map[string]CRUD{}}
		return nil
	}
	if isObject(raw[key]) {
		*p = decodeCRUD(raw)
	} else {
		*p = decodeLegacy(raw)
	}
	return nil
}

func (p *Permissions) decodeEnvelope(shape PermissionShape, sectionsRaw json.RawMessage) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(sectionsRaw, &raw); err != nil {
		return fmt.Errorf("permission sections must be an object: %w", err)
	}
	switch shape {
	case ShapeCRUD:
		*p = decodeCRUD(raw)
	case ShapeLegacy:
		*p = decodeLegacy(raw)
	default:
		return fmt.Errorf("unknown permission shape %q", shape)
	}
	return nil
}

func decodeCRUD(raw map[string]json.RawMessage) Permissions {
	p := Permissions{Shape: ShapeCRUD, Sections: make(map[string]CRUD, len(raw))}
	for section, v := range raw {
		if !isObject(v) {
			continue
		}
		var c CRUD
		if err := json.Unmarshal(v, &c); err != nil {
			continue
		}
		p.Sections[section] = c
	}
	return p
}

func decodeLegacy(raw map[string]json.RawMessage) Permissions {
	flags := make(map[string]bool, len(raw))
	for name, v := range raw {
		var on bool
		if err := json.Unmarshal(v, &on); err != nil {
			continue
		}
		flags[name] = on
	}
	return NewLegacyPermissions(flags)
}

// firstKey returns the first object key in document order
func firstKey(data []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return "", errors.New("permissions must be an object")
	}
	if !dec.More() {
		return "", nil
	}
	tok, err = dec.Token()
	if err != nil {
		return "", err
	}
	key, _ := tok.(string)
	return key, nil
}

func isObject(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '{'
}
