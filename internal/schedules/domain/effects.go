package domain

import "github.com/google/uuid"

// Effect is a side effect produced by a confirmation. Effects are executed
// by the caller after the primary result is decided; their failures never
// change that result.
type Effect interface {
	EffectName() string
}

// NotifyScheduleConfirmed asks for a confirmation notice to the scheduling inbox
// and, when known, the assignee.
type NotifyScheduleConfirmed struct {
	RecordID      uuid.UUID    `json:"recordId"`
	ScheduleType  ScheduleType `json:"scheduleType"`
	ProjectID     string       `json:"projectId"`
	ProjectName   string       `json:"projectName"`
	LocalDate     string       `json:"localDate"`
	LocalStart    string       `json:"localStart"`
	Timezone      string       `json:"timezone"`
	Assignee      string       `json:"assignee,omitempty"`
	AssigneeEmail string       `json:"assigneeEmail,omitempty"`
	ZuperJobUID   string       `json:"zuperJobUid"`
	ConfirmedBy   string       `json:"confirmedBy,omitempty"`
}

// RecordActivity asks for an activity log entry.
type RecordActivity struct {
	Action      string         `json:"action"`
	RecordID    uuid.UUID      `json:"recordId"`
	Actor       string         `json:"actor,omitempty"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (NotifyScheduleConfirmed) EffectName() string { return "notify_schedule_confirmed" }
func (RecordActivity) EffectName() string          { return "record_activity" }
