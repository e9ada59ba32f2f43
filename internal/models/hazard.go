package models

import "time"

// Hazard represents a reported workplace hazard and its approval state
type Hazard struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Location     string `json:"location"`
	Description  string `json:"description"`
	Severity     string `json:"severity"`
	Status       string `json:"status"`
	ReportedBy   string `json:"reportedBy"`
	ReporterName string `json:"reporterName,omitempty"`
	ReporterRole string `json:"reporterRole"`

	// Populated only through an approve decision
	Priority        string `json:"priority,omitempty"`
	Timeline        string `json:"timeline,omitempty"`
	AssignedTeam    string `json:"assignedTeam,omitempty"`
	ApprovalRemarks string `json:"approvalRemarks,omitempty"`

	// Approval slots
	AdminApproval      string `json:"adminApproval,omitempty"`
	ManagerApproval    string `json:"managerApproval,omitempty"`
	SupervisorApproval string `json:"supervisorApproval,omitempty"`

	AssignedEmployees []string `json:"assignedEmployees,omitempty"`

	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

// Hazard status constants
const (
	HazardStatusOpen       = "Open"
	HazardStatusPending    = "Pending"
	HazardStatusApproved   = "Approved"
	HazardStatusInProgress = "InProgress"
	HazardStatusResolved   = "Resolved"
)

// Severity and priority share the same scale
const (
	LevelLow      = "Low"
	LevelMedium   = "Medium"
	LevelHigh     = "High"
	LevelCritical = "Critical"
)

// Approval slot values. An unset slot is the empty string.
const (
	SlotPending  = "pending"
	SlotApproved = "approved"
)

// ValidLevel reports whether v is one of Low, Medium, High, Critical
func ValidLevel(v string) bool {
	switch v {
	case LevelLow, LevelMedium, LevelHigh, LevelCritical:
		return true
	}
	return false
}

// FullyApproved returns true when all three approval slots are approved
func (h *Hazard) FullyApproved() bool {
	return h.AdminApproval == SlotApproved &&
		h.ManagerApproval == SlotApproved &&
		h.SupervisorApproval == SlotApproved
}

// IsTerminal returns true if the hazard can no longer change state
func (h *Hazard) IsTerminal() bool {
	return h.Status == HazardStatusResolved
}

// Clone returns a deep copy so callers can mutate without touching the original
func (h *Hazard) Clone() *Hazard {
	c := *h
	if h.AssignedEmployees != nil {
		c.AssignedEmployees = append([]string(nil), h.AssignedEmployees...)
	}
	if h.ResolvedAt != nil {
		t := *h.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}
