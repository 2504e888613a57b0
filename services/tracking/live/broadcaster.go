package live

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/piresc/tirtha/internal/pkg/errors"
	"github.com/piresc/tirtha/internal/pkg/logger"
	"github.com/piresc/tirtha/internal/pkg/models"
	"github.com/piresc/tirtha/internal/utils"
)

// Key layout of the live layer. Every entry lives under actors/<id>; entries with
// a group are mirrored under groups/<gid>/<id> so a group can be read by prefix.
const (
	GlobalPrefix = "actors/"
	groupsRoot   = "groups/"
)

// ActorKey is the exact selector for one actor
func ActorKey(actorID string) string {
	return GlobalPrefix + actorID
}

// GroupPrefix is the prefix selector for one group
func GroupPrefix(groupID string) string {
	return groupsRoot + groupID + "/"
}

func groupKey(groupID, actorID string) string {
	return GroupPrefix(groupID) + actorID
}

// Matches reports whether key falls under selector. Selectors ending in "/" match
// by prefix, anything else matches exactly.
func Matches(selector, key string) bool {
	if strings.HasSuffix(selector, "/") {
		return strings.HasPrefix(key, selector)
	}
	return selector == key
}

// Broadcaster is the in-process live layer. Writers replace entries, and every
// listener whose selector covers a changed key is handed a fresh snapshot.
// Notifications coalesce: a slow listener sees the latest state, not every write.
type Broadcaster struct {
	mu        sync.RWMutex
	entries   map[string]*models.ActorLocationState
	listeners map[uint64]*listener
	nextID    uint64
	closed    bool

	geohashPrecision uint
	now              func() time.Time
}

type listener struct {
	id       uint64
	selector string
	onChange func([]*models.ActorLocationState)
	notify   chan struct{}
	done     chan struct{}

	deliverMu sync.Mutex
	stopped   bool
	once      sync.Once
}

// Option configures a Broadcaster
type Option func(*Broadcaster)

// WithGeohashPrecision stamps a geohash of the given precision on each entry
func WithGeohashPrecision(precision uint) Option {
	return func(b *Broadcaster) { b.geohashPrecision = precision }
}

// WithClock overrides the clock used for UpdatedAt
func WithClock(now func() time.Time) Option {
	return func(b *Broadcaster) { b.now = now }
}

// NewBroadcaster creates an empty live layer
func NewBroadcaster(opts ...Option) *Broadcaster {
	b := &Broadcaster{
		entries:   make(map[string]*models.ActorLocationState),
		listeners: make(map[uint64]*listener),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish replaces the live entry of state.ActorID and notifies listeners
func (b *Broadcaster) Publish(ctx context.Context, state *models.ActorLocationState) error {
	if state == nil || state.ActorID == "" {
		return apperrors.Validation("live entry requires an actor id")
	}

	entry := state.Clone()
	entry.UpdatedAt = b.now().UTC()
	if b.geohashPrecision > 0 && entry.LatestSample != nil {
		entry.Geohash = utils.EncodeGeohash(entry.LatestSample.Latitude, entry.LatestSample.Longitude, b.geohashPrecision)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return apperrors.ErrLiveLayerUnavailable
	}

	changed := []string{ActorKey(entry.ActorID)}
	if prev, ok := b.entries[ActorKey(entry.ActorID)]; ok && prev.GroupID != "" && prev.GroupID != entry.GroupID {
		old := groupKey(prev.GroupID, entry.ActorID)
		delete(b.entries, old)
		changed = append(changed, old)
	}
	b.entries[ActorKey(entry.ActorID)] = entry
	if entry.GroupID != "" {
		k := groupKey(entry.GroupID, entry.ActorID)
		b.entries[k] = entry
		changed = append(changed, k)
	}
	b.signalLocked(changed)
	b.mu.Unlock()

	logger.DebugCtx(ctx, "Live entry published",
		logger.String("actor_id", entry.ActorID),
		logger.String("group_id", entry.GroupID))
	return nil
}

// Retract removes actorID from the live layer, including its mirror under
// groupID and under whatever group the current entry carries
func (b *Broadcaster) Retract(ctx context.Context, actorID, groupID string) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return apperrors.ErrLiveLayerUnavailable
	}

	changed := []string{ActorKey(actorID)}
	if prev, ok := b.entries[ActorKey(actorID)]; ok && prev.GroupID != "" && prev.GroupID != groupID {
		k := groupKey(prev.GroupID, actorID)
		delete(b.entries, k)
		changed = append(changed, k)
	}
	delete(b.entries, ActorKey(actorID))
	if groupID != "" {
		k := groupKey(groupID, actorID)
		delete(b.entries, k)
		changed = append(changed, k)
	}
	b.signalLocked(changed)
	b.mu.Unlock()

	logger.DebugCtx(ctx, "Live entry retracted", logger.String("actor_id", actorID))
	return nil
}

// Subscribe registers onChange for selector. The current snapshot is delivered
// asynchronously right away and again after every change under selector.
// onChange calls for one subscription never overlap. The returned function
// unsubscribes; once it returns onChange is not invoked again. It must not be
// called from inside onChange.
func (b *Broadcaster) Subscribe(selector string, onChange func([]*models.ActorLocationState)) (func(), error) {
	if selector == "" || onChange == nil {
		return nil, apperrors.Validation("subscription requires a selector and a callback")
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, apperrors.ErrLiveLayerUnavailable
	}
	b.nextID++
	l := &listener{
		id:       b.nextID,
		selector: selector,
		onChange: onChange,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	b.listeners[l.id] = l
	l.signal()
	b.mu.Unlock()

	go b.run(l)

	return func() {
		b.mu.Lock()
		delete(b.listeners, l.id)
		b.mu.Unlock()
		l.stop()
	}, nil
}

// Snapshot returns copies of every entry under selector ordered by actor id
func (b *Broadcaster) Snapshot(selector string) ([]*models.ActorLocationState, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, apperrors.ErrLiveLayerUnavailable
	}
	return b.collectLocked(selector), nil
}

// Count returns the number of actors in the live layer
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for k := range b.entries {
		if strings.HasPrefix(k, GlobalPrefix) {
			n++
		}
	}
	return n
}

// Close stops every listener and rejects further operations
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	listeners := make([]*listener, 0, len(b.listeners))
	for id, l := range b.listeners {
		listeners = append(listeners, l)
		delete(b.listeners, id)
	}
	b.mu.Unlock()

	for _, l := range listeners {
		l.stop()
	}
}

func (b *Broadcaster) run(l *listener) {
	for {
		select {
		case <-l.done:
			return
		case <-l.notify:
			b.mu.RLock()
			if b.closed {
				b.mu.RUnlock()
				return
			}
			states := b.collectLocked(l.selector)
			b.mu.RUnlock()
			l.deliver(states)
		}
	}
}

func (b *Broadcaster) collectLocked(selector string) []*models.ActorLocationState {
	out := make([]*models.ActorLocationState, 0)
	for k, v := range b.entries {
		if Matches(selector, k) {
			out = append(out, v.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActorID < out[j].ActorID })
	return out
}

func (b *Broadcaster) signalLocked(keys []string) {
	for _, l := range b.listeners {
		for _, k := range keys {
			if Matches(l.selector, k) {
				l.signal()
				break
			}
		}
	}
}

func (l *listener) signal() {
	select {
	case l.notify <- struct{}{}:
	default:
	}
}

func (l *listener) deliver(states []*models.ActorLocationState) {
	l.deliverMu.Lock()
	defer l.deliverMu.Unlock()
	if l.stopped {
		return
	}
	l.onChange(states)
}

func (l *listener) stop() {
	l.once.Do(func() {
		l.deliverMu.Lock()
		l.stopped = true
		l.deliverMu.Unlock()
		close(l.done)
	})
}
