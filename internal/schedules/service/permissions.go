package service

import (
	"strings"

	"scheduling_backend/internal/schedules/domain"
)

// confirmRoles lists the roles allowed to confirm each schedule type.
var confirmRoles = map[domain.ScheduleType][]string{
	domain.ScheduleTypeSurvey:       {"admin", "owner", "manager", "operations", "operations_manager", "sales"},
	domain.ScheduleTypeInstallation: {"admin", "owner", "manager", "operations", "operations_manager"},
	domain.ScheduleTypeInspection:   {"admin", "owner", "manager", "operations", "operations_manager", "tech_ops"},
}

// CanConfirm reports whether any of roles may confirm schedules of type t.
func CanConfirm(roles []string, t domain.ScheduleType) bool {
	allowed := confirmRoles[t]
	for _, role := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		for _, a := range allowed {
			if role == a {
				return true
			}
		}
	}
	return false
}
