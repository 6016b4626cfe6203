package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskPartialLeadSweep = "leads.partial.sweep"

type PartialLeadSweepPayload struct {
	RequestedAt time.Time `json:"requestedAt"`
}

func NewPartialLeadSweepTask(payload PartialLeadSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPartialLeadSweep, data), nil
}

func ParsePartialLeadSweepPayload(task *asynq.Task) (PartialLeadSweepPayload, error) {
	var payload PartialLeadSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PartialLeadSweepPayload{}, err
	}
	return payload, nil
}
