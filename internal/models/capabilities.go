package models

// Capabilities is a user's effective capability set across all groups
type Capabilities struct {
	Users         bool `json:"users"`
	Reports       bool `json:"reports"`
	Hazards       bool `json:"hazards"`
	Checklists    bool `json:"checklists"`
	Training      bool `json:"training"`
	Notifications bool `json:"notifications"`
}

// Has reports whether section is granted
func (c Capabilities) Has(section string) bool {
	switch section {
	case SectionUsers:
		return c.Users
	case SectionReports:
		return c.Reports
	case SectionHazards:
		return c.Hazards
	case SectionChecklists:
		return c.Checklists
	case SectionTraining:
		return c.Training
	case SectionNotifications:
		return c.Notifications
	}
	return false
}

// Set grants section
func (c *Capabilities) Set(section string) {
	switch section {
	case SectionUsers:
		c.Users = true
	case SectionReports:
		c.Reports = true
	case SectionHazards:
		c.Hazards = true
	case SectionChecklists:
		c.Checklists = true
	case SectionTraining:
		c.Training = true
	case SectionNotifications:
		c.Notifications = true
	}
}

// SubsetOf reports whether every capability in c is also in o
func (c Capabilities) SubsetOf(o Capabilities) bool {
	for _, s := range Sections {
		if c.Has(s) && !o.Has(s) {
			return false
		}
	}
	return !c.Notifications || o.Notifications
}
