package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskVerdictAlert routes to handleVerdictAlertTask.
	TaskVerdictAlert = "patient:verdict_alert"
)

// VerdictAlertPayload is stored in Redis as JSON.
type VerdictAlertPayload struct {
	To        string  `json:"to"`
	PatientID string  `json:"patient_id"`
	Name      string  `json:"name"`
	BMI       float64 `json:"bmi"`
	Verdict   string  `json:"verdict"`
}

// NewVerdictAlertTask builds the alert task: 3 retries on the default
// queue, killed after 30 seconds.
func NewVerdictAlertTask(p VerdictAlertPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskVerdictAlert,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}
