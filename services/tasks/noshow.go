package tasks

import (
	"encoding/json"
	"time"

	"innkeep/models"

	"github.com/hibiken/asynq"
)

const TypeNoShowSweep = "booking:noshow_sweep"

func NewNoShowSweepTask(payload models.NoShowSweepPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeNoShowSweep, b)
	opts := []asynq.Option{asynq.ProcessAt(fireAt)}

	return task, opts, nil
}
