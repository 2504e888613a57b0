package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
	newrelic "github.com/newrelic/go-agent/v3/newrelic"
	"github.com/piresc/tirtha/internal/pkg/constants"
	apperrors "github.com/piresc/tirtha/internal/pkg/errors"
	"github.com/piresc/tirtha/internal/pkg/logger"
	"github.com/piresc/tirtha/internal/pkg/models"
	natspkg "github.com/piresc/tirtha/internal/pkg/nats"
	nrpkg "github.com/piresc/tirtha/internal/pkg/newrelic"
	"github.com/piresc/tirtha/services/tracking"
)

// DeviceSampleHandler ingests device samples published to JetStream
type DeviceSampleHandler struct {
	trackingUC tracking.TrackingUC
	natsClient *natspkg.Client
	nrApp      *newrelic.Application
}

// NewDeviceSampleHandler creates a new device sample consumer
func NewDeviceSampleHandler(trackingUC tracking.TrackingUC, client *natspkg.Client, nrApp *newrelic.Application) *DeviceSampleHandler {
	return &DeviceSampleHandler{
		trackingUC: trackingUC,
		natsClient: client,
		nrApp:      nrApp,
	}
}

// InitNATSConsumers creates the durable consumer and starts consuming
func (h *DeviceSampleHandler) InitNATSConsumers() error {
	logger.Info("Initializing JetStream consumers for tracking service")

	cfg := natspkg.DefaultConsumerConfigs()[constants.ConsumerDeviceSample]
	if err := h.natsClient.CreateConsumer(cfg); err != nil {
		logger.Error("Failed to create device sample consumer",
			logger.String("stream", cfg.StreamName),
			logger.Err(err))
		return fmt.Errorf("failed to create device sample consumer: %w", err)
	}

	if err := h.natsClient.ConsumeMessages(cfg.StreamName, cfg.ConsumerName, h.HandleDeviceSample); err != nil {
		return fmt.Errorf("failed to start consuming device samples: %w", err)
	}

	logger.Info("Device sample consumer started",
		logger.String("stream", cfg.StreamName),
		logger.String("consumer", cfg.ConsumerName))
	return nil
}

// HandleDeviceSample records one sample. Malformed, invalid or throttled samples
// are terminated; storage failures are redelivered.
func (h *DeviceSampleHandler) HandleDeviceSample(msg jetstream.Msg) error {
	ctx, end := nrpkg.StartBackgroundTransaction(context.Background(), h.nrApp, "nats/device-sample")
	err := h.handle(ctx, msg.Data())
	end(err)
	return err
}

func (h *DeviceSampleHandler) handle(ctx context.Context, data []byte) error {
	var in models.DeviceSample
	if err := json.Unmarshal(data, &in); err != nil {
		return natspkg.Permanent(fmt.Errorf("decode device sample: %w", err))
	}
	if in.ActorID == "" {
		return natspkg.Permanent(apperrors.Validation("actor_id is required"))
	}
	nrpkg.AddTransactionAttribute(nrpkg.FromContext(ctx), "actor.id", in.ActorID)

	_, err := h.trackingUC.RecordSample(ctx, in.ActorID, in.Profile, in.Sample)
	switch {
	case err == nil:
		return nil
	case apperrors.Is(err, apperrors.ErrValidation), apperrors.Is(err, apperrors.ErrRateLimited):
		logger.WarnCtx(ctx, "Rejected device sample",
			logger.String("actor_id", in.ActorID),
			logger.Err(err))
		return natspkg.Permanent(err)
	default:
		return err
	}
}
