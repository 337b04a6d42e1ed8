package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"scheduling_backend/internal/crew"
	"scheduling_backend/internal/schedules/domain"
	"scheduling_backend/internal/schedules/matcher"
	"scheduling_backend/internal/schedules/timezone"
	"scheduling_backend/internal/schedules/writeback"
	"scheduling_backend/internal/zuper"
	"scheduling_backend/platform/apperr"
	"scheduling_backend/platform/config"
	"scheduling_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultStartClock   = "08:00"
	installEndClock     = "17:00"
	shortVisitMinutes   = 60
	defaultLeaseTTL     = 2 * time.Minute
	defaultTagSource    = "hubspot"
	errNoExistingJob    = "no existing job found"
	errProviderDisabled = "field-service provider is not configured"
)

// Store is the record persistence the orchestrator needs.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ScheduleRecord, error)
	LoadTentative(ctx context.Context, id uuid.UUID) (*domain.ScheduleRecord, error)
	Claim(ctx context.Context, id, token uuid.UUID, lease time.Duration) (*domain.ScheduleRecord, error)
	Commit(ctx context.Context, id, token uuid.UUID, outcome domain.Outcome, actor string) (*domain.ScheduleRecord, error)
	ReleaseClaim(ctx context.Context, id, token uuid.UUID) error
}

// JobProvider is the field-service provider capability.
type JobProvider interface {
	Configured() bool
	matcher.JobSearcher
	RescheduleJob(ctx context.Context, req zuper.RescheduleRequest) error
}

// AssigneeDirectory resolves crew names to provider UIDs.
type AssigneeDirectory interface {
	LookupByName(ctx context.Context, name string) (*crew.Assignee, error)
}

// Writeback mirrors confirmed schedules onto the CRM.
type Writeback interface {
	Apply(ctx context.Context, req writeback.Request) []string
}

// Caller identifies who is confirming.
type Caller struct {
	UserID string
	Email  string
	Roles  []string
}

// Window is a resolved UTC schedule window.
type Window struct {
	Zone       string
	LocalDate  string
	LocalStart string
	StartUTC   string
	EndUTC     string
	Source     timezone.OffsetSource
}

// Result is the outcome of a successful confirmation.
type Result struct {
	Confirmed       bool
	ZuperJobUID     string
	HubSpotWarnings []string
	Record          *domain.ScheduleRecord
	Effects         []domain.Effect
}

// SyncError reports a failed external sync. The record was rolled back to a
// retryable tentative state with ZuperError set to Message.
type SyncError struct {
	RecordID uuid.UUID
	Message  string
	cause    *apperr.Error
}

func newSyncError(id uuid.UUID, message string, err error) *SyncError {
	return &SyncError{
		RecordID: id,
		Message:  message,
		cause:    apperr.Wrap(apperr.KindBadGateway, "schedule sync failed", err),
	}
}

func (e *SyncError) Error() string { return "schedule sync failed: " + e.Message }

func (e *SyncError) Unwrap() error {
	if e.cause == nil {
		return nil
	}
	return e.cause
}

type assignment struct {
	userUIDs []string
	teamUID  string
	email    string
}

// Service confirms tentative schedules against the field-service provider.
type Service struct {
	store     Store
	provider  JobProvider
	matcher   *matcher.Matcher
	directory AssigneeDirectory
	writeback Writeback
	tagSource string
	leaseTTL  time.Duration
	log       *logger.Logger
}

// New creates the confirmation service. provider may be unconfigured, in
// which case confirmations are rejected as unavailable.
func New(store Store, provider JobProvider, directory AssigneeDirectory, wb Writeback, cfg config.ConfirmationConfig, log *logger.Logger) *Service {
	tagSource := strings.TrimSpace(cfg.GetJobTagSource())
	if tagSource == "" {
		tagSource = defaultTagSource
	}
	lease := cfg.GetConfirmLeaseTTL()
	if lease <= 0 {
		lease = defaultLeaseTTL
	}
	return &Service{
		store:     store,
		provider:  provider,
		matcher:   matcher.New(provider),
		directory: directory,
		writeback: wb,
		tagSource: tagSource,
		leaseTTL:  lease,
		log:       log,
	}
}

// Get returns a schedule record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.ScheduleRecord, error) {
	return s.store.GetByID(ctx, id)
}

// Confirm pushes a tentative schedule to the provider and commits it.
//
// Validation and assignee resolution failures leave the record untouched.
// Failures from the external apply are persisted on the record and returned
// as *SyncError. Nothing after the commit can fail the call.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, caller Caller) (*Result, error) {
	log := s.log.WithContext(ctx)

	rec, err := s.store.LoadTentative(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanConfirm(caller.Roles, rec.ScheduleType) {
		return nil, apperr.Forbidden(fmt.Sprintf("not permitted to confirm %s schedules", rec.ScheduleType))
	}
	if s.provider == nil || !s.provider.Configured() {
		return nil, apperr.Unavailable(errProviderDisabled)
	}

	assignees, err := s.resolveAssignees(ctx, rec)
	if err != nil {
		return nil, err
	}

	window, err := ComputeWindow(rec)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if window.Source != timezone.SourceZoneDatabase {
		log.SyncEvent("timezone_fallback", id.String(), string(rec.ScheduleType), "zone", window.Zone, "source", string(window.Source))
	}

	token := uuid.New()
	rec, err = s.store.Claim(ctx, id, token, s.leaseTTL)
	if err != nil {
		return nil, err
	}
	// Past the claim the outcome must be recorded even if the caller goes
	// away; provider and CRM calls are bounded by their client timeouts.
	syncCtx := context.WithoutCancel(ctx)
	log.SyncEvent("confirm_claimed", id.String(), string(rec.ScheduleType), "start_utc", window.StartUTC, "end_utc", window.EndUTC)

	jobUID, syncErr := s.apply(syncCtx, rec, window, assignees)
	if syncErr != nil {
		msg := syncErr.Error()
		if _, err := s.store.Commit(syncCtx, id, token, domain.Failed{Error: msg}, caller.UserID); err != nil {
			log.DatabaseError("commit failed outcome", err)
			if relErr := s.store.ReleaseClaim(syncCtx, id, token); relErr != nil {
				log.DatabaseError("release claim", relErr)
			}
		}
		log.SyncEvent("confirm_failed", id.String(), string(rec.ScheduleType), "error", msg)
		return nil, newSyncError(id, msg, syncErr)
	}

	committed, err := s.store.Commit(syncCtx, id, token, domain.Scheduled{ExternalJobUID: jobUID}, caller.UserID)
	if err != nil {
		log.SyncEvent("confirm_commit_lost", id.String(), string(rec.ScheduleType), "zuper_job_uid", jobUID, "error", err.Error())
		return nil, err
	}
	log.SyncEvent("confirm_succeeded", id.String(), string(rec.ScheduleType), "zuper_job_uid", jobUID)

	result := &Result{
		Confirmed:   true,
		ZuperJobUID: jobUID,
		Record:      committed,
	}
	if s.writeback != nil {
		result.HubSpotWarnings = s.writeback.Apply(syncCtx, writeback.Request{
			DealID:       committed.ProjectID,
			ScheduleType: committed.ScheduleType,
			Date:         committed.ScheduledDate,
			Assignee:     committed.AssignedUser,
		})
	}
	result.Effects = confirmationEffects(committed, window, assignees, caller)
	return result, nil
}

// apply matches and reschedules the provider job. Every error it returns
// is a sync failure.
func (s *Service) apply(ctx context.Context, rec *domain.ScheduleRecord, window Window, a assignment) (string, error) {
	criteria := matcher.CriteriaFor(rec, s.tagSource)
	job, kind, err := s.matcher.Find(ctx, criteria)
	if err != nil {
		return "", err
	}
	if job == nil {
		return "", errors.New(errNoExistingJob)
	}
	s.log.SyncEvent("job_matched", rec.ID.String(), string(rec.ScheduleType), "zuper_job_uid", job.UID, "match", string(kind))

	err = s.provider.RescheduleJob(ctx, zuper.RescheduleRequest{
		JobUID:   job.UID,
		StartUTC: window.StartUTC,
		EndUTC:   window.EndUTC,
		UserUIDs: a.userUIDs,
		TeamUID:  a.teamUID,
	})
	if err != nil {
		return "", err
	}
	return job.UID, nil
}

func (s *Service) resolveAssignees(ctx context.Context, rec *domain.ScheduleRecord) (assignment, error) {
	a := assignment{teamUID: strings.TrimSpace(rec.AssignedTeamUID)}
	if uids := rec.AssigneeUIDs(); len(uids) > 0 {
		a.userUIDs = uids
		return a, nil
	}

	name := strings.TrimSpace(rec.AssignedUser)
	if name == "" {
		return a, nil
	}
	if _, err := uuid.Parse(name); err == nil {
		a.userUIDs = []string{name}
		return a, nil
	}

	var found *crew.Assignee
	if s.directory != nil {
		var err error
		found, err = s.directory.LookupByName(ctx, name)
		if err != nil {
			s.log.ExternalCallFailed("crew", "lookup_by_name", err)
			return a, apperr.Wrap(apperr.KindUnprocessable, fmt.Sprintf("could not resolve assignee %q", name), err)
		}
	}
	if found == nil || found.UserUID == "" {
		return a, apperr.Unprocessable(fmt.Sprintf("could not resolve assignee %q", name))
	}

	a.userUIDs = []string{found.UserUID}
	a.email = found.Email
	if a.teamUID == "" {
		a.teamUID = found.TeamUID
	}
	return a, nil
}

// ComputeWindow resolves the record's local schedule into a UTC window.
func ComputeWindow(rec *domain.ScheduleRecord) (Window, error) {
	zone := timezone.SelectZone(rec.ExplicitTimezone(), rec.ProjectName)

	startClock := timezone.NormalizeClock(rec.ScheduledStart)
	if startClock == "" {
		startClock = defaultStartClock
	}
	startDate := strings.TrimSpace(rec.ScheduledDate)

	start, err := timezone.Resolve(startDate, startClock, zone)
	if err != nil {
		return Window{}, err
	}

	endDate, endClock, err := endOf(rec, startDate, startClock)
	if err != nil {
		return Window{}, err
	}
	end, err := timezone.Resolve(endDate, endClock, zone)
	if err != nil {
		return Window{}, err
	}

	return Window{
		Zone:       zone,
		LocalDate:  startDate,
		LocalStart: startClock,
		StartUTC:   start.Formatted(),
		EndUTC:     end.Formatted(),
		Source:     start.Source,
	}, nil
}

func endOf(rec *domain.ScheduleRecord, startDate, startClock string) (string, string, error) {
	day, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return "", "", fmt.Errorf("invalid date %q: %w", startDate, err)
	}

	if rec.ScheduleType == domain.ScheduleTypeInstallation {
		endClock := timezone.NormalizeClock(rec.ScheduledEnd)
		if endClock == "" {
			endClock = installEndClock
		}
		return day.AddDate(0, 0, InstallSpanDays(rec.ScheduledDays)-1).Format("2006-01-02"), endClock, nil
	}

	if endClock := timezone.NormalizeClock(rec.ScheduledEnd); endClock != "" {
		return startDate, endClock, nil
	}
	clock, err := time.Parse("15:04", startClock)
	if err != nil {
		return "", "", fmt.Errorf("invalid time %q: %w", startClock, err)
	}
	end := timezone.ShiftWallClock(day, clock.Hour(), clock.Minute(), shortVisitMinutes)
	return end.Format("2006-01-02"), end.Format("15:04"), nil
}

// InstallSpanDays returns max(ceil(days), 1).
func InstallSpanDays(days *float64) int {
	if days == nil || *days <= 0 {
		return 1
	}
	return int(math.Max(math.Ceil(*days), 1))
}

func confirmationEffects(rec *domain.ScheduleRecord, window Window, a assignment, caller Caller) []domain.Effect {
	jobUID := ""
	if rec.ZuperJobUID != nil {
		jobUID = *rec.ZuperJobUID
	}
	return []domain.Effect{
		domain.NotifyScheduleConfirmed{
			RecordID:      rec.ID,
			ScheduleType:  rec.ScheduleType,
			ProjectID:     rec.ProjectID,
			ProjectName:   rec.ProjectName,
			LocalDate:     window.LocalDate,
			LocalStart:    window.LocalStart,
			Timezone:      window.Zone,
			Assignee:      rec.AssignedUser,
			AssigneeEmail: a.email,
			ZuperJobUID:   jobUID,
			ConfirmedBy:   firstNonEmpty(caller.Email, caller.UserID),
		},
		domain.RecordActivity{
			Action:      "schedule_confirmed",
			RecordID:    rec.ID,
			Actor:       caller.UserID,
			Description: fmt.Sprintf("Confirmed %s for %s on %s", rec.ScheduleType, rec.ProjectName, window.LocalDate),
			Metadata: map[string]any{
				"zuperJobUid": jobUID,
				"startUtc":    window.StartUTC,
				"endUtc":      window.EndUTC,
				"timezone":    window.Zone,
			},
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
