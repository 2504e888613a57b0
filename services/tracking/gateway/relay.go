package gateway

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/piresc/tirtha/internal/pkg/constants"
	"github.com/piresc/tirtha/internal/pkg/logger"
	"github.com/piresc/tirtha/internal/pkg/models"
	natspkg "github.com/piresc/tirtha/internal/pkg/nats"
	"github.com/piresc/tirtha/services/tracking"
)

const (
	relayOpPublish = "publish"
	relayOpRetract = "retract"
)

type relayMessage struct {
	Origin  string                     `json:"origin"`
	Op      string                     `json:"op"`
	ActorID string                     `json:"actor_id"`
	GroupID string                     `json:"group_id,omitempty"`
	State   *models.ActorLocationState `json:"state,omitempty"`
}

// LiveRelay keeps the live layers of several instances in step. Local writes
// are applied first and then fanned out over NATS; writes from other instances
// are applied to the local layer only.
type LiveRelay struct {
	local  tracking.LivePublisher
	client *natspkg.Client
	origin string
	sub    *nats.Subscription
}

var _ tracking.LivePublisher = (*LiveRelay)(nil)

// NewLiveRelay wraps local with NATS fan-out
func NewLiveRelay(local tracking.LivePublisher, client *natspkg.Client) *LiveRelay {
	return &LiveRelay{
		local:  local,
		client: client,
		origin: uuid.NewString(),
	}
}

// Start subscribes to writes from other instances
func (r *LiveRelay) Start() error {
	sub, err := r.client.Subscribe(constants.SubjectLiveRelayAll, r.handle)
	if err != nil {
		return err
	}
	r.sub = sub
	logger.Info("Live relay started",
		logger.String("origin", r.origin),
		logger.String("subject", constants.SubjectLiveRelayAll))
	return nil
}

// Stop unsubscribes from the relay subject
func (r *LiveRelay) Stop() error {
	if r.sub == nil {
		return nil
	}
	return r.sub.Unsubscribe()
}

// Publish applies state locally and relays it
func (r *LiveRelay) Publish(ctx context.Context, state *models.ActorLocationState) error {
	if err := r.local.Publish(ctx, state); err != nil {
		return err
	}
	r.send(ctx, relayMessage{Op: relayOpPublish, ActorID: state.ActorID, GroupID: state.GroupID, State: state})
	return nil
}

// Retract removes the actor locally and relays the removal
func (r *LiveRelay) Retract(ctx context.Context, actorID, groupID string) error {
	if err := r.local.Retract(ctx, actorID, groupID); err != nil {
		return err
	}
	r.send(ctx, relayMessage{Op: relayOpRetract, ActorID: actorID, GroupID: groupID})
	return nil
}

// Subscribe registers a listener on the local layer
func (r *LiveRelay) Subscribe(selector string, onChange func([]*models.ActorLocationState)) (func(), error) {
	return r.local.Subscribe(selector, onChange)
}

// Snapshot reads the local layer
func (r *LiveRelay) Snapshot(selector string) ([]*models.ActorLocationState, error) {
	return r.local.Snapshot(selector)
}

func (r *LiveRelay) send(ctx context.Context, msg relayMessage) {
	msg.Origin = r.origin
	if err := r.client.PublishJSON(RelaySubject(msg.ActorID, msg.GroupID), msg); err != nil {
		logger.WarnCtx(ctx, "Failed to relay live update",
			logger.String("actor_id", msg.ActorID),
			logger.String("op", msg.Op),
			logger.Err(err))
	}
}

func (r *LiveRelay) handle(m *nats.Msg) {
	var msg relayMessage
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		logger.Warn("Dropping malformed relay message",
			logger.String("subject", m.Subject),
			logger.Err(err))
		return
	}
	if msg.Origin == r.origin {
		return
	}

	ctx := context.Background()
	var err error
	switch msg.Op {
	case relayOpPublish:
		if msg.State == nil {
			return
		}
		err = r.local.Publish(ctx, msg.State)
	case relayOpRetract:
		err = r.local.Retract(ctx, msg.ActorID, msg.GroupID)
	default:
		logger.Warn("Unknown relay operation", logger.String("op", msg.Op))
		return
	}
	if err != nil {
		logger.Warn("Failed to apply relayed update",
			logger.String("actor_id", msg.ActorID),
			logger.Err(err))
	}
}

// RelaySubject is the NATS subject carrying live updates for one actor
func RelaySubject(actorID, groupID string) string {
	if groupID != "" {
		return constants.SubjectLiveRelayPrefix + ".group." + subjectToken(groupID) + "." + subjectToken(actorID)
	}
	return constants.SubjectLiveRelayPrefix + ".actor." + subjectToken(actorID)
}

var tokenReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")

func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return tokenReplacer.Replace(s)
}
