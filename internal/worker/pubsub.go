package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/accesspath/accesspath/internal/obstacle"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	refreshJob       *RefreshJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RefreshJob       *RefreshJob
	Logger           zerolog.Logger
}

// JobMessage represents a background job message.
type JobMessage struct {
	JobType string `json:"job_type"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		refreshJob:       cfg.RefreshJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	// Parse message.
	var jobMsg JobMessage
	if err := json.Unmarshal(msg.Data, &jobMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	// Handle based on job type.
	var err error
	switch jobMsg.JobType {
	case "ranking_refresh":
		err = h.handleRankingRefresh(ctx)
	case "health_check":
		err = h.handleHealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", jobMsg.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	duration := time.Since(startTime)
	logger.Info().
		Str("job_type", jobMsg.JobType).
		Dur("duration", duration).
		Msg("job completed successfully")

	msg.Ack()
}

func (h *PubSubHandler) handleRankingRefresh(ctx context.Context) error {
	h.logger.Info().Msg("starting ranking refresh")

	result := h.refreshJob.Run(ctx)

	h.logger.Info().
		Dur("duration", result.Duration).
		Str("snapshot_id", result.SnapshotID).
		Int("top_score", result.TopScore).
		Int("scanned", result.Scanned).
		Int("stale", len(result.Stale)).
		Msg("ranking refresh completed")

	if len(result.Errors) > 0 {
		return fmt.Errorf("refresh run had %d errors, first: %s %s",
			len(result.Errors), result.Errors[0].Step, result.Errors[0].Error)
	}

	return nil
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	// A stats read touches the obstacle store end to end.
	if _, err := h.refreshJob.priorityService.Stats(ctx, obstacle.ListFilter{}); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
