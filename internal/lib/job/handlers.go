package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/deppfellow/patient-api/internal/config"
	"github.com/deppfellow/patient-api/internal/lib/email"
)

// AlertSender delivers a rendered verdict alert. *email.Client implements it.
type AlertSender interface {
	SendVerdictAlert(to string, data email.VerdictAlertData) error
}

// InitHandlers builds the dependencies the task handlers need. It must run
// before Start.
func (j *JobService) InitHandlers(cfg *config.Config, logger *zerolog.Logger) {
	j.sender = email.NewClient(cfg, logger)
}

func (j *JobService) handleVerdictAlertTask(ctx context.Context, t *asynq.Task) error {
	var p VerdictAlertPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal verdict alert payload: %w: %w", err, asynq.SkipRetry)
	}

	log := j.logger.With().
		Str("type", TaskVerdictAlert).
		Str("to", p.To).
		Str("patient_id", p.PatientID).
		Logger()

	log.Info().Str("verdict", p.Verdict).Msg("Processing verdict alert task")

	if j.sender == nil {
		return fmt.Errorf("verdict alert handler not initialized: %w", asynq.SkipRetry)
	}

	err := j.sender.SendVerdictAlert(p.To, email.VerdictAlertData{
		PatientID: p.PatientID,
		Name:      p.Name,
		BMI:       fmt.Sprintf("%.2f", p.BMI),
		Verdict:   p.Verdict,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to send verdict alert")
		return err
	}

	log.Info().Msg("Successfully sent verdict alert")
	return nil
}
