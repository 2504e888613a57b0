package subscription

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/piresc/tirtha/internal/pkg/errors"
	"github.com/piresc/tirtha/internal/pkg/keylock"
	"github.com/piresc/tirtha/internal/pkg/logger"
	"github.com/piresc/tirtha/internal/pkg/models"
	"github.com/piresc/tirtha/services/tracking"
	"github.com/piresc/tirtha/services/tracking/live"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultInitialTimeout bounds the wait for a feed's first snapshot
	DefaultInitialTimeout = 3 * time.Second
	// DefaultResolveTimeout bounds one group directory lookup
	DefaultResolveTimeout = 5 * time.Second
)

// Config holds subscription manager settings
type Config struct {
	InitialTimeout  time.Duration
	ResolveTimeout  time.Duration
	DefaultStrategy models.GroupStrategy
}

// Manager keeps at most one live feed per owner
type Manager struct {
	live   tracking.LivePublisher
	groups tracking.GroupDirectory
	cfg    Config

	locks   *keylock.KeyLock
	mu      sync.Mutex
	subs    map[string]*subscription
	resolve singleflight.Group
}

// NewManager creates a subscription manager. groups may be nil, in which case
// group feeds always use the prefix strategy.
func NewManager(livePub tracking.LivePublisher, groups tracking.GroupDirectory, cfg Config) *Manager {
	if cfg.InitialTimeout <= 0 {
		cfg.InitialTimeout = DefaultInitialTimeout
	}
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = DefaultResolveTimeout
	}
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = models.StrategyPrefix
	}
	return &Manager{
		live:   livePub,
		groups: groups,
		cfg:    cfg,
		locks:  keylock.New(),
		subs:   make(map[string]*subscription),
	}
}

type subscription struct {
	req        models.FeedRequest
	membership *models.GroupMembership
	onUpdate   func(models.FeedUpdate)

	emitMu sync.Mutex
	state  models.FeedState

	timer       *time.Timer
	unsubscribe func()
}

// Open starts a feed for owner. An identical open keeps the running feed; a
// different one tears the old feed down before the new one is registered.
func (m *Manager) Open(ctx context.Context, owner string, req models.FeedRequest, onUpdate func(models.FeedUpdate)) error {
	if owner == "" || onUpdate == nil {
		return apperrors.Validation("feed requires an owner and a callback")
	}
	req, err := m.normalize(req)
	if err != nil {
		return err
	}

	unlock := m.locks.Lock(owner)
	defer unlock()

	m.mu.Lock()
	existing := m.subs[owner]
	m.mu.Unlock()
	if existing != nil {
		if existing.req.Equal(req) {
			return nil
		}
		m.remove(owner)
		existing.close()
	}

	sub := &subscription{req: req, onUpdate: onUpdate, state: models.FeedIdle}
	if req.Scope == models.ScopeGroup && req.Strategy == models.StrategyFilter {
		membership, err := m.membership(ctx, req.Target)
		if err != nil {
			return err
		}
		sub.membership = membership
	}

	sub.transition(models.FeedConnecting)
	sub.timer = time.AfterFunc(m.cfg.InitialTimeout, sub.expireConnecting)

	unsubscribe, err := m.live.Subscribe(selectorFor(req), sub.deliver)
	if err != nil {
		sub.close()
		logger.WarnCtx(ctx, "Failed to open live feed",
			logger.String("owner", owner),
			logger.String("scope", string(req.Scope)),
			logger.Err(err))
		return err
	}
	sub.unsubscribe = unsubscribe

	m.mu.Lock()
	m.subs[owner] = sub
	m.mu.Unlock()

	logger.DebugCtx(ctx, "Live feed opened",
		logger.String("owner", owner),
		logger.String("scope", string(req.Scope)),
		logger.String("target", req.Target),
		logger.String("strategy", string(req.Strategy)))
	return nil
}

// Close stops owner's feed. Once it returns the feed's callback is not invoked again.
func (m *Manager) Close(owner string) {
	unlock := m.locks.Lock(owner)
	defer unlock()

	if sub := m.remove(owner); sub != nil {
		sub.close()
	}
}

// CloseAll stops every feed
func (m *Manager) CloseAll() {
	m.mu.Lock()
	owners := make([]string, 0, len(m.subs))
	for owner := range m.subs {
		owners = append(owners, owner)
	}
	m.mu.Unlock()

	for _, owner := range owners {
		m.Close(owner)
	}
}

// State returns the lifecycle state of owner's feed
func (m *Manager) State(owner string) models.FeedState {
	m.mu.Lock()
	sub := m.subs[owner]
	m.mu.Unlock()
	if sub == nil {
		return models.FeedIdle
	}
	sub.emitMu.Lock()
	defer sub.emitMu.Unlock()
	return sub.state
}

// Count returns the number of open feeds
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Snapshot returns what a feed for req would currently emit
func (m *Manager) Snapshot(ctx context.Context, req models.FeedRequest) ([]*models.ActorLocationState, error) {
	req, err := m.normalize(req)
	if err != nil {
		return nil, err
	}
	states, err := m.live.Snapshot(selectorFor(req))
	if err != nil {
		return nil, err
	}
	if req.Scope == models.ScopeGroup && req.Strategy == models.StrategyFilter {
		membership, err := m.membership(ctx, req.Target)
		if err != nil {
			return nil, err
		}
		states = filter(states, membership)
	}
	return states, nil
}

// Members returns the membership behind a filter-strategy group feed, after the
// same normalization Open applies. Other feeds return nil.
func (m *Manager) Members(ctx context.Context, req models.FeedRequest) (*models.GroupMembership, error) {
	req, err := m.normalize(req)
	if err != nil {
		return nil, err
	}
	if req.Scope != models.ScopeGroup || req.Strategy != models.StrategyFilter {
		return nil, nil
	}
	return m.membership(ctx, req.Target)
}

func (m *Manager) remove(owner string) *subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := m.subs[owner]
	delete(m.subs, owner)
	return sub
}

func (m *Manager) normalize(req models.FeedRequest) (models.FeedRequest, error) {
	switch req.Scope {
	case models.ScopeSingle:
		if req.Target == "" {
			return req, apperrors.Validation("single feed requires a target actor")
		}
		req.Strategy = ""
	case models.ScopeGroup:
		if req.Target == "" {
			return req, apperrors.Validation("group feed requires a target group")
		}
		if req.Strategy == "" {
			req.Strategy = m.cfg.DefaultStrategy
		}
		if req.Strategy != models.StrategyPrefix && req.Strategy != models.StrategyFilter {
			return req, apperrors.Validation("unknown group strategy %q", req.Strategy)
		}
		if m.groups == nil {
			req.Strategy = models.StrategyPrefix
		}
	case models.ScopeGlobal:
		req.Target = ""
		req.Strategy = ""
	default:
		return req, apperrors.Validation("unknown feed scope %q", req.Scope)
	}
	return req, nil
}

// membership resolves a group once per open; concurrent opens for the same
// group share a single directory call. The shared call is detached from the
// caller that started it so one cancelled open does not fail the others.
// Unknown groups have no members.
func (m *Manager) membership(ctx context.Context, groupID string) (*models.GroupMembership, error) {
	v, err, _ := m.resolve.Do(groupID, func() (interface{}, error) {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.ResolveTimeout)
		defer cancel()
		return m.groups.ResolveMembers(dctx, groupID)
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return models.NewGroupMembership(groupID, nil), nil
		}
		return nil, err
	}
	membership, _ := v.(*models.GroupMembership)
	if membership == nil {
		return models.NewGroupMembership(groupID, nil), nil
	}
	return membership, nil
}

func selectorFor(req models.FeedRequest) string {
	switch req.Scope {
	case models.ScopeSingle:
		return live.ActorKey(req.Target)
	case models.ScopeGroup:
		if req.Strategy == models.StrategyPrefix {
			return live.GroupPrefix(req.Target)
		}
	}
	return live.GlobalPrefix
}

func filter(states []*models.ActorLocationState, membership *models.GroupMembership) []*models.ActorLocationState {
	out := make([]*models.ActorLocationState, 0, len(states))
	for _, s := range states {
		if membership.Contains(s.ActorID) {
			out = append(out, s)
		}
	}
	return out
}

func (s *subscription) transition(state models.FeedState) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.state = state
	s.onUpdate(models.FeedUpdate{Request: s.req, State: state})
}

func (s *subscription) deliver(states []*models.ActorLocationState) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if s.state == models.FeedClosed {
		return
	}
	if s.membership != nil {
		states = filter(states, s.membership)
	}
	s.state = models.FeedLive
	update := models.FeedUpdate{Request: s.req, State: models.FeedLive, States: states}
	if s.req.Scope == models.ScopeSingle && len(states) > 0 {
		update.Entry = states[0]
	}
	s.onUpdate(update)
}

func (s *subscription) expireConnecting() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if s.state != models.FeedConnecting {
		return
	}
	s.state = models.FeedLive
	s.onUpdate(models.FeedUpdate{Request: s.req, State: models.FeedLive, States: []*models.ActorLocationState{}})
}

func (s *subscription) close() {
	s.emitMu.Lock()
	s.state = models.FeedClosed
	s.emitMu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
