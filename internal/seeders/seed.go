package seeders

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"hazard-service/internal/models"
	"hazard-service/internal/repository"
)

// SeedFile is the YAML document loaded at startup
type SeedFile struct {
	Users  []SeedUser  `yaml:"users"`
	Groups []SeedGroup `yaml:"groups"`
}

// SeedUser is one account to create when its email is not taken
type SeedUser struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	Approved bool   `yaml:"approved"`
}

// SeedGroup is one group to create when no group has its id or name.
// Permissions may use legacy flags or CRUD sections; the first key decides.
type SeedGroup struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Members     []string        `yaml:"members"`
	Permissions SeedPermissions `yaml:"permissions"`
}

// SeedPermissions decodes either permission shape from YAML
type SeedPermissions struct {
	models.Permissions
}

// UnmarshalYAML picks the shape from the first value: a mapping means CRUD
// sections, anything else means legacy flags.
func (p *SeedPermissions) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: permissions must be a mapping", node.Line)
	}
	if len(node.Content) < 2 {
		p.Permissions = models.NewCRUDPermissions(nil)
		return nil
	}

	if node.Content[1].Kind == yaml.MappingNode {
		var sections map[string]models.CRUD
		if err := node.Decode(&sections); err != nil {
			return err
		}
		p.Permissions = models.NewCRUDPermissions(sections)
		return nil
	}

	var flags map[string]bool
	if err := node.Decode(&flags); err != nil {
		return err
	}
	p.Permissions = models.NewLegacyPermissions(flags)
	return nil
}

// LoadFile reads a seed document. ${VAR} references are expanded from the
// environment so secrets stay out of the file.
func LoadFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes a seed document
func Parse(raw []byte) (*SeedFile, error) {
	expanded := os.ExpandEnv(string(raw))
	expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

	var seed SeedFile
	if err := yaml.Unmarshal([]byte(expanded), &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, seed.Validate()
}

// Validate checks required fields
func (s *SeedFile) Validate() error {
	for i, u := range s.Users {
		if u.Email == "" || u.Password == "" || u.Name == "" {
			return fmt.Errorf("users[%d]: name, email and password are required", i)
		}
		if u.Role != "" && !models.ValidRole(u.Role) {
			return fmt.Errorf("users[%d]: invalid role %q", i, u.Role)
		}
	}
	for i, g := range s.Groups {
		if g.Name == "" {
			return fmt.Errorf("groups[%d]: name is required", i)
		}
	}
	return nil
}

// DefaultSeed is used when no seed file is configured: a single approved
// admin. An empty password falls back to "admin" for local development.
func DefaultSeed(password string) *SeedFile {
	if password == "" {
		password = "admin"
	}
	return &SeedFile{
		Users: []SeedUser{{
			Name:     "Administrator",
			Email:    "admin@hazard.local",
			Password: password,
			Role:     models.RoleAdmin,
			Approved: true,
		}},
	}
}

// Result counts what Seed created
type Result struct {
	Users  int
	Groups int
}

// Seed creates missing users and groups. Existing records are left untouched,
// so running it on every start is safe. Seeded records do not produce
// notifications.
func Seed(ctx context.Context, seed *SeedFile, users repository.UserRepositoryInterface, groups repository.GroupRepositoryInterface, logger *logrus.Logger) (Result, error) {
	var res Result
	now := time.Now().UTC()

	emailToID := make(map[string]string)
	for _, su := range seed.Users {
		existing, err := users.GetByEmail(ctx, su.Email)
		if err == nil {
			emailToID[strings.ToLower(su.Email)] = existing.ID
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return res, err
		}

		u := &models.User{
			ID:        su.ID,
			Name:      su.Name,
			Email:     su.Email,
			Password:  su.Password,
			Role:      su.Role,
			Approved:  su.Approved,
			CreatedAt: now,
		}
		if u.ID == "" {
			u.ID = uuid.Must(uuid.NewV7()).String()
		}
		if u.Role == "" {
			u.Role = models.RoleEmployee
		}
		if err := users.Create(ctx, u); err != nil {
			return res, fmt.Errorf("failed to seed user %s: %w", su.Email, err)
		}
		emailToID[strings.ToLower(su.Email)] = u.ID
		res.Users++
	}

	existingGroups, err := groups.List(ctx)
	if err != nil {
		return res, err
	}
	taken := make(map[string]bool, len(existingGroups)*2)
	for _, g := range existingGroups {
		taken["id:"+g.ID] = true
		taken["name:"+strings.ToLower(g.Name)] = true
	}

	for _, sg := range seed.Groups {
		if (sg.ID != "" && taken["id:"+sg.ID]) || taken["name:"+strings.ToLower(sg.Name)] {
			continue
		}

		// Members may be listed by user id or by seeded email
		members := make([]string, 0, len(sg.Members))
		for _, m := range sg.Members {
			if id, ok := emailToID[strings.ToLower(m)]; ok {
				m = id
			}
			members = append(members, m)
		}

		g := &models.Group{
			ID:          sg.ID,
			Name:        sg.Name,
			Description: sg.Description,
			Members:     members,
			Permissions: sg.Permissions.Permissions.Clone(),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if g.ID == "" {
			g.ID = uuid.Must(uuid.NewV7()).String()
		}
		if err := groups.Create(ctx, g); err != nil {
			return res, fmt.Errorf("failed to seed group %s: %w", sg.Name, err)
		}
		taken["id:"+g.ID] = true
		taken["name:"+strings.ToLower(g.Name)] = true
		res.Groups++

		for _, m := range members {
			u, err := users.GetByID(ctx, m)
			if err != nil || u.GroupID != "" {
				continue
			}
			u.GroupID = g.ID
			if err := users.Update(ctx, u); err != nil {
				return res, err
			}
		}
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"users":  res.Users,
			"groups": res.Groups,
		}).Info("Seed data applied")
	}
	return res, nil
}
