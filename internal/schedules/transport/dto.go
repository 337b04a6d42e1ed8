package transport

import (
	"time"

	"scheduling_backend/internal/schedules/domain"
)

// RecordIDParams binds the :id path parameter.
type RecordIDParams struct {
	ID string `uri:"id" validate:"required,uuid"`
}

// ConfirmResponse is returned when a schedule was confirmed.
type ConfirmResponse struct {
	Confirmed       bool     `json:"confirmed"`
	ZuperJobUID     string   `json:"zuperJobUid"`
	HubSpotWarnings []string `json:"hubspotWarnings,omitempty"`
}

// ConfirmFailureResponse is returned when the provider sync failed. The
// record stays tentative and can be confirmed again.
type ConfirmFailureResponse struct {
	Confirmed   bool   `json:"confirmed"`
	ZuperSynced bool   `json:"zuperSynced"`
	ZuperError  string `json:"zuperError"`
	Error       string `json:"error"`
}

// ScheduleRecordResponse is the API view of a schedule record.
type ScheduleRecordResponse struct {
	ID              string     `json:"id"`
	ScheduleType    string     `json:"scheduleType"`
	ProjectID       string     `json:"projectId"`
	ProjectName     string     `json:"projectName"`
	ScheduledDate   string     `json:"scheduledDate"`
	ScheduledStart  string     `json:"scheduledStart,omitempty"`
	ScheduledEnd    string     `json:"scheduledEnd,omitempty"`
	ScheduledDays   *float64   `json:"scheduledDays,omitempty"`
	AssignedUser    string     `json:"assignedUser,omitempty"`
	AssignedUserUID string     `json:"assignedUserUid,omitempty"`
	AssignedTeamUID string     `json:"assignedTeamUid,omitempty"`
	Status          string     `json:"status"`
	LifecycleState  string     `json:"lifecycleState"`
	Timezone        *string    `json:"timezone,omitempty"`
	ZuperJobUID     *string    `json:"zuperJobUid,omitempty"`
	ZuperSynced     bool       `json:"zuperSynced"`
	ZuperError      *string    `json:"zuperError,omitempty"`
	Notes           string     `json:"notes"`
	ConfirmInFlight bool       `json:"confirmInFlight"`
	ConfirmedBy     *string    `json:"confirmedBy,omitempty"`
	ConfirmedAt     *time.Time `json:"confirmedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ToRecordResponse converts a domain record to its API view.
func ToRecordResponse(rec *domain.ScheduleRecord) ScheduleRecordResponse {
	return ScheduleRecordResponse{
		ID:              rec.ID.String(),
		ScheduleType:    string(rec.ScheduleType),
		ProjectID:       rec.ProjectID,
		ProjectName:     rec.ProjectName,
		ScheduledDate:   rec.ScheduledDate,
		ScheduledStart:  rec.ScheduledStart,
		ScheduledEnd:    rec.ScheduledEnd,
		ScheduledDays:   rec.ScheduledDays,
		AssignedUser:    rec.AssignedUser,
		AssignedUserUID: rec.AssignedUserUID,
		AssignedTeamUID: rec.AssignedTeamUID,
		Status:          string(rec.Status),
		LifecycleState:  string(rec.LifecycleState),
		Timezone:        rec.Timezone,
		ZuperJobUID:     rec.ZuperJobUID,
		ZuperSynced:     rec.ZuperSynced,
		ZuperError:      rec.ZuperError,
		Notes:           rec.Notes,
		ConfirmInFlight: rec.SyncClaimToken != nil,
		ConfirmedBy:     rec.ConfirmedBy,
		ConfirmedAt:     rec.ConfirmedAt,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
}
