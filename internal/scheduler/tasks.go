package scheduler

import (
	"encoding/json"
	"fmt"

	"scheduling_backend/internal/schedules/domain"

	"github.com/hibiken/asynq"
)

const TaskScheduleConfirmedNotify = "schedules.confirmed.notify"

const TaskScheduleActivityRecord = "schedules.activity.record"

func NewScheduleConfirmedNotifyTask(payload domain.NotifyScheduleConfirmed) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskScheduleConfirmedNotify, data), nil
}

func ParseScheduleConfirmedNotifyPayload(task *asynq.Task) (domain.NotifyScheduleConfirmed, error) {
	var payload domain.NotifyScheduleConfirmed
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return domain.NotifyScheduleConfirmed{}, err
	}
	return payload, nil
}

func NewScheduleActivityTask(payload domain.RecordActivity) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskScheduleActivityRecord, data), nil
}

func ParseScheduleActivityPayload(task *asynq.Task) (domain.RecordActivity, error) {
	var payload domain.RecordActivity
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return domain.RecordActivity{}, err
	}
	return payload, nil
}

// taskFor maps an effect onto its queue task.
func taskFor(effect domain.Effect) (*asynq.Task, error) {
	switch e := effect.(type) {
	case domain.NotifyScheduleConfirmed:
		return NewScheduleConfirmedNotifyTask(e)
	case domain.RecordActivity:
		return NewScheduleActivityTask(e)
	}
	return nil, fmt.Errorf("unsupported effect %q", effect.EffectName())
}
