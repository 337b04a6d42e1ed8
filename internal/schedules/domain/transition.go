package domain

import (
	"strings"
	"time"
)

// Outcome is the result of an external sync attempt, applied by Commit.
type Outcome interface {
	isOutcome()
}

// Scheduled records a successful external sync.
type Scheduled struct {
	ExternalJobUID string
}

// Failed records a sync failure; the record stays retryable.
type Failed struct {
	Error string
}

func (Scheduled) isOutcome() {}
func (Failed) isOutcome()    {}

// Commit applies outcome to r. Only a tentative record may be committed;
// anything else is rejected with ErrNotTentative and r is left untouched.
func Commit(r *ScheduleRecord, outcome Outcome, actor string, at time.Time) error {
	if !r.IsTentative() {
		return ErrNotTentative
	}

	switch o := outcome.(type) {
	case Scheduled:
		jobUID := o.ExternalJobUID
		r.Status = StatusScheduled
		r.LifecycleState = LifecycleConfirmed
		r.ZuperSynced = true
		r.ZuperJobUID = &jobUID
		r.ZuperError = nil
		r.Notes = SwapLifecycleTag(r.Notes)
		if actor != "" {
			r.ConfirmedBy = &actor
		}
		confirmedAt := at
		r.ConfirmedAt = &confirmedAt
	case Failed:
		msg := o.Error
		r.ZuperSynced = false
		r.ZuperError = &msg
	}

	r.SyncClaimToken = nil
	r.SyncClaimedAt = nil
	r.UpdatedAt = at
	return nil
}

// SwapLifecycleTag replaces the first tentative tag with the confirmed tag.
// When no tentative tag is present the confirmed tag is appended once.
func SwapLifecycleTag(notes string) string {
	if strings.Contains(notes, TagTentative) {
		return strings.Replace(notes, TagTentative, TagConfirmed, 1)
	}
	if strings.Contains(notes, TagConfirmed) {
		return notes
	}
	trimmed := strings.TrimRight(notes, " \n")
	if trimmed == "" {
		return TagConfirmed
	}
	return trimmed + " " + TagConfirmed
}
