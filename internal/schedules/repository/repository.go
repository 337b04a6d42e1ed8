package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scheduling_backend/internal/schedules/domain"
	"scheduling_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	recordNotFoundMsg    = "schedule record not found"
	recordNotTentative   = "schedule record is not tentative"
	confirmInProgressMsg = "a confirmation for this schedule record is already in progress"
)

const recordColumns = `id, schedule_type, project_id, project_name, scheduled_date, scheduled_start,
	scheduled_end, scheduled_days, assigned_user, assigned_user_uid, assigned_team_uid, status,
	lifecycle_state, timezone, zuper_job_uid, zuper_synced, zuper_error, notes, sync_claim_token,
	sync_claimed_at, created_by, confirmed_by, confirmed_at, created_at, updated_at`

// Repository provides database operations for schedule records
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new schedule records repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID retrieves a schedule record by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ScheduleRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM schedule_records WHERE id = $1`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(recordNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get schedule record: %w", err)
	}
	return rec, nil
}

// LoadTentative retrieves a record that is still awaiting confirmation.
func (r *Repository) LoadTentative(ctx context.Context, id uuid.UUID) (*domain.ScheduleRecord, error) {
	rec, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.IsTentative() {
		return nil, apperr.Conflict(recordNotTentative).WithDetails(map[string]string{"status": string(rec.Status)})
	}
	return rec, nil
}

// Claim takes the confirmation lease on a tentative record. Only one caller
// can hold an unexpired claim; everyone else gets a conflict.
func (r *Repository) Claim(ctx context.Context, id, token uuid.UUID, lease time.Duration) (*domain.ScheduleRecord, error) {
	query := `
		UPDATE schedule_records
		SET sync_claim_token = $2, sync_claimed_at = now(), updated_at = now()
		WHERE id = $1
		  AND status = 'tentative'
		  AND (sync_claim_token IS NULL OR sync_claimed_at < now() - make_interval(secs => $3::double precision))
		RETURNING ` + recordColumns

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id, token, lease.Seconds()))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to claim schedule record: %w", err)
	}

	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if !current.IsTentative() {
		return nil, apperr.Conflict(recordNotTentative).WithDetails(map[string]string{"status": string(current.Status)})
	}
	return nil, apperr.Conflict(confirmInProgressMsg)
}

// Commit applies outcome to a record held under token. The write is
// conditional on the record still being tentative and claimed by token.
func (r *Repository) Commit(ctx context.Context, id, token uuid.UUID, outcome domain.Outcome, actor string) (*domain.ScheduleRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `SELECT ` + recordColumns + ` FROM schedule_records
		WHERE id = $1 AND sync_claim_token = $2 FOR UPDATE`
	rec, err := scanRecord(tx.QueryRow(ctx, query, id, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Conflict(confirmInProgressMsg)
		}
		return nil, fmt.Errorf("failed to load claimed schedule record: %w", err)
	}

	if err := domain.Commit(rec, outcome, actor, time.Now().UTC()); err != nil {
		return nil, apperr.Wrap(apperr.KindConflict, recordNotTentative, err)
	}

	update := `
		UPDATE schedule_records
		SET status = $3, lifecycle_state = $4, zuper_job_uid = $5, zuper_synced = $6,
		    zuper_error = $7, notes = $8, confirmed_by = $9, confirmed_at = $10,
		    sync_claim_token = NULL, sync_claimed_at = NULL, updated_at = $11
		WHERE id = $1 AND status = 'tentative' AND sync_claim_token = $2`

	tag, err := tx.Exec(ctx, update, id, token,
		string(rec.Status), string(rec.LifecycleState), rec.ZuperJobUID, rec.ZuperSynced,
		rec.ZuperError, rec.Notes, rec.ConfirmedBy, rec.ConfirmedAt, rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to commit schedule record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.Wrap(apperr.KindConflict, recordNotTentative, domain.ErrNotTentative)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit schedule record: %w", err)
	}
	return rec, nil
}

// ReleaseClaim drops a claim without recording an outcome.
func (r *Repository) ReleaseClaim(ctx context.Context, id, token uuid.UUID) error {
	query := `UPDATE schedule_records SET sync_claim_token = NULL, sync_claimed_at = NULL
		WHERE id = $1 AND sync_claim_token = $2`
	if _, err := r.pool.Exec(ctx, query, id, token); err != nil {
		return fmt.Errorf("failed to release schedule claim: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (*domain.ScheduleRecord, error) {
	var (
		rec                             domain.ScheduleRecord
		scheduleType, status, lifecycle string
		start, end                      *string
		user, userUID, teamUID          *string
	)
	err := row.Scan(
		&rec.ID, &scheduleType, &rec.ProjectID, &rec.ProjectName, &rec.ScheduledDate, &start,
		&end, &rec.ScheduledDays, &user, &userUID, &teamUID, &status,
		&lifecycle, &rec.Timezone, &rec.ZuperJobUID, &rec.ZuperSynced, &rec.ZuperError, &rec.Notes, &rec.SyncClaimToken,
		&rec.SyncClaimedAt, &rec.CreatedBy, &rec.ConfirmedBy, &rec.ConfirmedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.ScheduleType = domain.ScheduleType(scheduleType)
	rec.Status = domain.Status(status)
	rec.LifecycleState = domain.LifecycleState(lifecycle)
	rec.ScheduledStart = deref(start)
	rec.ScheduledEnd = deref(end)
	rec.AssignedUser = deref(user)
	rec.AssignedUserUID = deref(userUID)
	rec.AssignedTeamUID = deref(teamUID)
	return &rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

