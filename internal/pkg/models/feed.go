package models

// FeedScope is the breadth of a live subscription
type FeedScope string

const (
	ScopeSingle FeedScope = "single"
	ScopeGroup  FeedScope = "group"
	ScopeGlobal FeedScope = "global"
)

// GroupStrategy selects how a group feed is produced
type GroupStrategy string

const (
	// StrategyPrefix subscribes to the group-partitioned keys directly
	StrategyPrefix GroupStrategy = "prefix"
	// StrategyFilter subscribes to the global feed and filters by resolved membership
	StrategyFilter GroupStrategy = "filter"
)

// FeedRequest describes which slice of the live layer a caller wants
type FeedRequest struct {
	Scope    FeedScope     `json:"scope"`
	Target   string        `json:"target,omitempty"`
	Strategy GroupStrategy `json:"strategy,omitempty"`
}

// Equal reports whether two requests select the same feed
func (r FeedRequest) Equal(o FeedRequest) bool {
	return r.Scope == o.Scope && r.Target == o.Target && r.Strategy == o.Strategy
}

// FeedState is the lifecycle state of a live subscription
type FeedState string

const (
	FeedIdle       FeedState = "idle"
	FeedConnecting FeedState = "connecting"
	FeedLive       FeedState = "live"
	FeedClosed     FeedState = "closed"
)

// FeedUpdate is one emission of a live subscription. For single-actor feeds
// Entry is nil when the actor has no live entry.
type FeedUpdate struct {
	Request FeedRequest
	State   FeedState
	States  []*ActorLocationState
	Entry   *ActorLocationState
}
