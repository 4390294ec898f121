// Package job runs background work on Asynq, a Redis-backed queue.
//
// The API process is both producer (Client) and consumer (server).
package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/deppfellow/patient-api/internal/config"
)

// JobService holds the Asynq client (enqueue) and server (workers).
type JobService struct {
	Client *asynq.Client

	server *asynq.Server
	logger *zerolog.Logger
	sender AlertSender
}

// NewJobService creates a JobService over the Redis configured in cfg.
//
// Concurrency is 10, shared across queues by weight critical:6,
// default:3, low:1.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	return &JobService{
		Client: client,
		server: server,
		logger: logger,
	}
}

// Start registers task handlers and starts the workers in the background.
//
// InitHandlers must have run first; without a sender every verdict alert
// fails permanently.
func (j *JobService) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskVerdictAlert, j.handleVerdictAlertTask)

	j.logger.Info().Msg("Starting background job server")

	if err := j.server.Start(mux); err != nil {
		return err
	}

	return nil
}

// EnqueueVerdictAlert pushes a verdict alert task onto the default queue.
//
// The task carries everything the email needs, so the worker never reads
// the patient store. A record edited again before the task runs still
// produces an alert for the verdict it had when it was enqueued.
func (j *JobService) EnqueueVerdictAlert(ctx context.Context, p VerdictAlertPayload) error {
	task, err := NewVerdictAlertTask(p)
	if err != nil {
		return fmt.Errorf("failed to build verdict alert task: %w", err)
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue verdict alert: %w", err)
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Str("patient_id", p.PatientID).
		Msg("Enqueued verdict alert")

	return nil
}

// Stop waits for running tasks, then closes the enqueue connection.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	j.Client.Close()
}
