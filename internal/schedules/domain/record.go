// Package domain holds the schedule record model and its transition rules.
// It has no I/O; the repository and the in-memory test stores both apply
// the same rules through Commit.
package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScheduleType identifies which field-service appointment a record represents.
type ScheduleType string

const (
	ScheduleTypeSurvey       ScheduleType = "survey"
	ScheduleTypeInstallation ScheduleType = "installation"
	ScheduleTypeInspection   ScheduleType = "inspection"
)

// Valid reports whether t is a known schedule type.
func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleTypeSurvey, ScheduleTypeInstallation, ScheduleTypeInspection:
		return true
	}
	return false
}

// Status is the authoritative gate for confirmation.
type Status string

const (
	StatusTentative Status = "tentative"
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
)

// LifecycleState is the typed replacement for the lifecycle tag in notes.
type LifecycleState string

const (
	LifecycleTentative LifecycleState = "tentative"
	LifecycleConfirmed LifecycleState = "confirmed"
)

// Lifecycle tags embedded in notes by older writers.
const (
	TagTentative = "[TENTATIVE]"
	TagConfirmed = "[CONFIRMED]"
)

// ErrNotTentative is returned when a transition is attempted on a record
// that has already left the tentative state (or lost its confirmation claim).
var ErrNotTentative = errors.New("schedule record is not tentative")

var timezoneTagRegex = regexp.MustCompile(`\[TZ:([^\]\s]+)\]`)

// ScheduleRecord is a locally persisted appointment proposal and its
// external-sync binding.
type ScheduleRecord struct {
	ID              uuid.UUID
	ScheduleType    ScheduleType
	ProjectID       string
	ProjectName     string
	ScheduledDate   string
	ScheduledStart  string
	ScheduledEnd    string
	ScheduledDays   *float64
	AssignedUser    string
	AssignedUserUID string
	AssignedTeamUID string
	Status          Status
	LifecycleState  LifecycleState
	Timezone        *string
	ZuperJobUID     *string
	ZuperSynced     bool
	ZuperError      *string
	Notes           string
	SyncClaimToken  *uuid.UUID
	SyncClaimedAt   *time.Time
	CreatedBy       *string
	ConfirmedBy     *string
	ConfirmedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsTentative reports whether the record may still be confirmed.
func (r *ScheduleRecord) IsTentative() bool {
	return r.Status == StatusTentative
}

// ExplicitTimezone returns the zone pinned on the record, preferring the
// typed column over a [TZ:<name>] tag in notes.
func (r *ScheduleRecord) ExplicitTimezone() string {
	if r.Timezone != nil && strings.TrimSpace(*r.Timezone) != "" {
		return strings.TrimSpace(*r.Timezone)
	}
	if m := timezoneTagRegex.FindStringSubmatch(r.Notes); len(m) == 2 {
		return m[1]
	}
	return ""
}

// AssigneeUIDs splits the comma-joined user UID column.
func (r *ScheduleRecord) AssigneeUIDs() []string {
	return SplitUIDs(r.AssignedUserUID)
}

// SplitUIDs splits a comma-joined UID list, dropping blanks.
func SplitUIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ProjectParts is the decoded form of the "code | customer | address" project name.
type ProjectParts struct {
	Code     string
	Customer string
	Address  string
}

// ParseProjectName splits a composite project name. Missing segments are empty.
func ParseProjectName(name string) ProjectParts {
	segments := strings.Split(name, "|")
	var parts ProjectParts
	for i, seg := range segments {
		seg = strings.TrimSpace(seg)
		switch i {
		case 0:
			parts.Code = seg
		case 1:
			parts.Customer = seg
		case 2:
			parts.Address = seg
		}
	}
	return parts
}

// CustomerLastName extracts a last name from "Last, First" or "First Last".
func (p ProjectParts) CustomerLastName() string {
	customer := strings.TrimSpace(p.Customer)
	if customer == "" {
		return ""
	}
	if idx := strings.Index(customer, ","); idx >= 0 {
		return strings.TrimSpace(customer[:idx])
	}
	fields := strings.Fields(customer)
	return fields[len(fields)-1]
}
