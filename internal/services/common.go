package services

import (
	"sort"

	"github.com/google/uuid"

	"hazard-service/internal/models"
)

// Actor is the authenticated caller of an operation
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// IsEmployee reports whether the actor has the lowest role
func (a Actor) IsEmployee() bool {
	return a.Role == models.RoleEmployee || a.Role == ""
}

// IsAdmin reports whether the actor is an admin
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// newID returns a time-ordered UUIDv7 string
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// uniqueSorted drops empty and duplicate ids
func uniqueSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
