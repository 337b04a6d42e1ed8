package service

import (
	"context"
	"sync"
	"time"

	"scheduling_backend/internal/crew"
	"scheduling_backend/internal/schedules/domain"
	"scheduling_backend/internal/schedules/writeback"
	"scheduling_backend/internal/zuper"
	"scheduling_backend/platform/apperr"

	"github.com/google/uuid"
)

// memStore applies the same claim and commit rules as the pg repository.
type memStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.ScheduleRecord
}

func newMemStore(recs ...*domain.ScheduleRecord) *memStore {
	s := &memStore{records: make(map[uuid.UUID]*domain.ScheduleRecord)}
	for _, r := range recs {
		cp := *r
		s.records[r.ID] = &cp
	}
	return s
}

func (s *memStore) snapshot(id uuid.UUID) domain.ScheduleRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.records[id]
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*domain.ScheduleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, apperr.NotFound("schedule record not found")
	}
	cp := *rec
	return &cp, nil
}

func (s *memStore) LoadTentative(ctx context.Context, id uuid.UUID) (*domain.ScheduleRecord, error) {
	rec, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.IsTentative() {
		return nil, apperr.Conflict("schedule record is not tentative")
	}
	return rec, nil
}

func (s *memStore) Claim(_ context.Context, id, token uuid.UUID, lease time.Duration) (*domain.ScheduleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, apperr.NotFound("schedule record not found")
	}
	if !rec.IsTentative() {
		return nil, apperr.Conflict("schedule record is not tentative")
	}
	if rec.SyncClaimToken != nil && rec.SyncClaimedAt != nil && time.Since(*rec.SyncClaimedAt) < lease {
		return nil, apperr.Conflict("confirmation already in progress")
	}
	now := time.Now()
	rec.SyncClaimToken = &token
	rec.SyncClaimedAt = &now
	cp := *rec
	return &cp, nil
}

func (s *memStore) Commit(_ context.Context, id, token uuid.UUID, outcome domain.Outcome, actor string) (*domain.ScheduleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, apperr.NotFound("schedule record not found")
	}
	if rec.SyncClaimToken == nil || *rec.SyncClaimToken != token {
		return nil, apperr.Conflict("confirmation already in progress")
	}
	cp := *rec
	if err := domain.Commit(&cp, outcome, actor, time.Now()); err != nil {
		return nil, apperr.Wrap(apperr.KindConflict, "schedule record is not tentative", err)
	}
	s.records[id] = &cp
	out := cp
	return &out, nil
}

func (s *memStore) ReleaseClaim(_ context.Context, id, token uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[id]; ok && rec.SyncClaimToken != nil && *rec.SyncClaimToken == token {
		rec.SyncClaimToken = nil
		rec.SyncClaimedAt = nil
	}
	return nil
}

// cancellableStore fails writes on a done context, as pgx does.
type cancellableStore struct {
	*memStore
}

func (s cancellableStore) Commit(ctx context.Context, id, token uuid.UUID, outcome domain.Outcome, actor string) (*domain.ScheduleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.memStore.Commit(ctx, id, token, outcome, actor)
}

func (s cancellableStore) ReleaseClaim(ctx context.Context, id, token uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.memStore.ReleaseClaim(ctx, id, token)
}

type fakeProvider struct {
	mu            sync.Mutex
	configured    bool
	jobs          []zuper.Job
	searchErr     error
	rescheduleErr error
	searches      int
	reschedules   []zuper.RescheduleRequest

	// entered and release let a test hold a reschedule call open.
	entered chan struct{}
	release chan struct{}
	// onReschedule runs inside RescheduleJob before the call completes.
	onReschedule func()
}

func newFakeProvider(jobs ...zuper.Job) *fakeProvider {
	return &fakeProvider{configured: true, jobs: jobs}
}

func (p *fakeProvider) Configured() bool { return p.configured }

func (p *fakeProvider) SearchJobs(_ context.Context, q zuper.JobQuery) ([]zuper.Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searches++
	if p.searchErr != nil {
		return nil, p.searchErr
	}
	return append([]zuper.Job(nil), p.jobs...), nil
}

func (p *fakeProvider) RescheduleJob(ctx context.Context, req zuper.RescheduleRequest) error {
	if p.entered != nil {
		p.entered <- struct{}{}
		<-p.release
	}
	if p.onReschedule != nil {
		p.onReschedule()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reschedules = append(p.reschedules, req)
	return p.rescheduleErr
}

func (p *fakeProvider) calls() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.searches, len(p.reschedules)
}

func (p *fakeProvider) setRescheduleErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rescheduleErr = err
}

type fakeDirectory struct {
	mu      sync.Mutex
	entries map[string]crew.Assignee
	lookups int
}

func (d *fakeDirectory) LookupByName(_ context.Context, name string) (*crew.Assignee, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookups++
	if a, ok := d.entries[name]; ok {
		return &a, nil
	}
	return nil, nil
}

type fakeWriteback struct {
	warnings []string
	requests []writeback.Request
}

func (w *fakeWriteback) Apply(_ context.Context, req writeback.Request) []string {
	w.requests = append(w.requests, req)
	return w.warnings
}

type confirmConfig struct{}

func (confirmConfig) GetJobTagSource() string           { return "hubspot" }
func (confirmConfig) GetConfirmLeaseTTL() time.Duration { return time.Minute }
