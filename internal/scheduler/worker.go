package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"scheduling_backend/internal/activity"
	"scheduling_backend/internal/email"
	"scheduling_backend/platform/config"
	"scheduling_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const entityScheduleRecord = "schedule_record"

// ActivityRecorder stores activity log entries.
type ActivityRecorder interface {
	Record(ctx context.Context, entry *activity.Entry) error
}

// Handlers executes schedule effect tasks.
type Handlers struct {
	sender   email.Sender
	inbox    string
	activity ActivityRecorder
	log      *logger.Logger
}

// NewHandlers creates the effect task handlers. inbox may be empty.
func NewHandlers(sender email.Sender, inbox string, recorder ActivityRecorder, log *logger.Logger) *Handlers {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Handlers{sender: sender, inbox: strings.TrimSpace(inbox), activity: recorder, log: log}
}

// HandleScheduleConfirmedNotify mails the scheduling inbox and the assignee.
func (h *Handlers) HandleScheduleConfirmedNotify(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseScheduleConfirmedNotifyPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	notice := email.ScheduleConfirmedNotice{
		ScheduleType: string(payload.ScheduleType),
		ProjectName:  payload.ProjectName,
		LocalDate:    payload.LocalDate,
		LocalStart:   payload.LocalStart,
		Timezone:     payload.Timezone,
		Assignee:     payload.Assignee,
		ZuperJobUID:  payload.ZuperJobUID,
		ConfirmedBy:  payload.ConfirmedBy,
	}

	var errs []error
	for _, to := range recipients(h.inbox, payload.AssigneeEmail) {
		if err := h.sender.SendScheduleConfirmed(ctx, to, notice); err != nil {
			h.log.Warn("failed to send schedule confirmation", "record_id", payload.RecordID.String(), "to", to, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HandleScheduleActivity writes one activity log entry.
func (h *Handlers) HandleScheduleActivity(ctx context.Context, task *asynq.Task) error {
	if h.activity == nil {
		return nil
	}

	payload, err := ParseScheduleActivityPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	return h.activity.Record(ctx, &activity.Entry{
		Action:      payload.Action,
		EntityType:  entityScheduleRecord,
		EntityID:    payload.RecordID,
		Actor:       payload.Actor,
		Description: payload.Description,
		Metadata:    payload.Metadata,
	})
}

func recipients(addresses ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		key := strings.ToLower(addr)
		if addr == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}
	return out
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, handlers *Handlers, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error("schedule effect task failed", "task", task.Type(), "error", err)
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskScheduleConfirmedNotify, handlers.HandleScheduleConfirmedNotify)
	mux.HandleFunc(TaskScheduleActivityRecord, handlers.HandleScheduleActivity)

	return &Worker{server: server, mux: mux, log: log}, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
