package services

import "hazard-service/internal/models"

// ResolveSections OR-merges the CRUD flags of every group userID belongs to.
// Sections no group mentions are absent from the result.
func ResolveSections(userID string, groups []models.Group) map[string]models.CRUD {
	merged := make(map[string]models.CRUD)
	for i := range groups {
		if !groups[i].HasMember(userID) {
			continue
		}
		for section, ops := range groups[i].Permissions.Sections {
			merged[section] = merged[section].Or(ops)
		}
	}
	return merged
}

// Resolve computes the effective capability set of userID. A section is
// granted when any of the user's groups allows create or read on it.
// Membership in more groups can only add capabilities. Notifications are
// always granted.
func Resolve(userID string, groups []models.Group) models.Capabilities {
	caps := models.Capabilities{Notifications: true}
	merged := ResolveSections(userID, groups)
	for _, section := range models.Sections {
		if merged[section].Granted() {
			caps.Set(section)
		}
	}
	return caps
}
