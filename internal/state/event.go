package state

import "github.com/WinstonKong/bubble-chat/internal/model"

// Event is one named transition of the client snapshot. Each variant
// carries only the fields its merge policy needs; unknown variants are a
// protocol-version mismatch and make Reduce panic.
type Event interface {
	event()
}

// ConnStatus is the transport connection flag carried in the snapshot.
type ConnStatus string

const (
	ConnUninitialized ConnStatus = "uninitialized"
	ConnConnected     ConnStatus = "connected"
	ConnDisconnected  ConnStatus = "disconnected"
)

// LoadStatus is the initial-snapshot load flag.
type LoadStatus string

const (
	LoadPending LoadStatus = ""
	LoadOK      LoadStatus = "ok"
	LoadFailed  LoadStatus = "failed"
)

// ConnectionChanged marks the connection established or lost. No data
// mutation happens either way.
type ConnectionChanged struct {
	Status ConnStatus
}

// InitialSnapshot is the server's answer to the join handshake. A failed
// load only flips the load flag.
type InitialSnapshot struct {
	OK       bool
	User     *model.User
	Channels map[string]*model.Channel
}

// MessagesMerged overlays a batch of messages (initial load, live batch,
// or pagination fetch) and reruns unread reconciliation for the affected
// channels.
type MessagesMerged struct {
	Messages map[string]*model.Message
}

// MessagePushed overlays a single live message. A message not authored
// by the current user and not already known increments that channel's
// transient unread count by one.
type MessagePushed struct {
	Message *model.Message
}

// ChannelsUpdated overlays channels plus any accompanying messages and
// reruns unread reconciliation.
type ChannelsUpdated struct {
	Channels map[string]*model.Channel
	Messages map[string]*model.Message
}

// FriendRequestsUpdated overlays friend-request records.
type FriendRequestsUpdated struct {
	Requests map[string]*model.FriendRequest
}

// FriendRequestResolved is the accept path: one atomic overlay of self,
// users, channels, messages, and friend requests, with unread
// reconciliation over the accompanying messages.
type FriendRequestResolved struct {
	User     *model.User
	Users    map[string]*model.User
	Channels map[string]*model.Channel
	Messages map[string]*model.Message
	Requests map[string]*model.FriendRequest
}

// SelfUpdated overlays the current user's own projection.
type SelfUpdated struct {
	User *model.User
}

// SelfAndUsersUpdated overlays the current user plus other user
// projections in one step (friend list responses).
type SelfAndUsersUpdated struct {
	User  *model.User
	Users map[string]*model.User
}

// UsersUpdated overlays user projections.
type UsersUpdated struct {
	Users map[string]*model.User
}

// ReadStateChanged advances read cursors and/or replaces transient
// unread counts for the named channels. Cursor advances are monotonic;
// a lower value than the stored cursor is ignored.
type ReadStateChanged struct {
	Read   map[string]int64
	Unread map[string]int
}

// OpenChannelChanged moves the active-view pointer. An empty ChannelID
// clears it (leaving a channel). Not persisted.
type OpenChannelChanged struct {
	ChannelID string
}

func (ConnectionChanged) event()     {}
func (InitialSnapshot) event()       {}
func (MessagesMerged) event()        {}
func (MessagePushed) event()         {}
func (ChannelsUpdated) event()       {}
func (FriendRequestsUpdated) event() {}
func (FriendRequestResolved) event() {}
func (SelfUpdated) event()           {}
func (SelfAndUsersUpdated) event()   {}
func (UsersUpdated) event()          {}
func (ReadStateChanged) event()      {}
func (OpenChannelChanged) event()    {}
