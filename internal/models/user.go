package models

import "time"

// User represents an account in the users collection.
// Password is persisted with the record but never returned by the API.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password,omitempty"`
	Role      string    `json:"role"`
	Approved  bool      `json:"approved"`
	GroupID   string    `json:"groupId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Role constants
const (
	RoleAdmin         = "admin"
	RoleSafetyManager = "safety_manager"
	RoleSupervisor    = "supervisor"
	RoleEmployee      = "employee"
)

// ValidRole reports whether role is a known role
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSafetyManager, RoleSupervisor, RoleEmployee:
		return true
	}
	return false
}

// UserResponse is the exported view of a user, without the password
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Approved  bool      `json:"approved"`
	GroupID   string    `json:"groupId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToResponse strips the password
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Approved:  u.Approved,
		GroupID:   u.GroupID,
		CreatedAt: u.CreatedAt,
	}
}
