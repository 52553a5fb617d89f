package state

import "github.com/WinstonKong/bubble-chat/internal/model"

// Snapshot is the full client state at one point in time. Snapshots are
// immutable: Reduce returns a new value and never touches its input, so
// a snapshot handed to the rendering layer stays valid while the engine
// moves on. Callers must not mutate the maps.
type Snapshot struct {
	UserID        string
	OpenChannelID string
	Connection    ConnStatus
	LoadStatus    LoadStatus

	User           *model.User
	Users          map[string]*model.User
	Channels       map[string]*model.Channel
	Messages       map[string]*model.Message
	FriendRequests map[string]*model.FriendRequest

	// ReadCursors mirrors the persisted per-channel read positions;
	// Unread is the derived transient counter map.
	ReadCursors map[string]int64
	Unread      map[string]int
}

// NewSnapshot builds the initial snapshot for a user, seeded with the
// read cursors loaded from the local store.
func NewSnapshot(uid string, cursors map[string]int64) *Snapshot {
	if cursors == nil {
		cursors = make(map[string]int64)
	}
	return &Snapshot{
		UserID:      uid,
		Connection:  ConnUninitialized,
		ReadCursors: cursors,
	}
}

// ChannelMessages returns the known messages of one channel, newest
// first when sorted is true.
func (s *Snapshot) ChannelMessages(channelID string, sorted bool) []*model.Message {
	var msgs []*model.Message
	for _, m := range s.Messages {
		if m.ChannelID == channelID {
			msgs = append(msgs, m)
		}
	}
	if sorted {
		model.SortNewestFirst(msgs)
	}
	return msgs
}

// LatestMessageID returns the newest server-assigned message ID of a
// channel, or false when the channel has no sequenced messages yet.
func (s *Snapshot) LatestMessageID(channelID string) (int64, bool) {
	var latest int64
	found := false
	for _, m := range s.Messages {
		if m.ChannelID != channelID || m.MessageID == nil {
			continue
		}
		if !found || *m.MessageID > latest {
			latest = *m.MessageID
			found = true
		}
	}
	return latest, found
}

// DMChannel finds the existing DM channel pairing the current user with
// peer, if any.
func (s *Snapshot) DMChannel(peerID string) *model.Channel {
	dmID := model.DMID(s.UserID, peerID)
	for _, c := range s.Channels {
		if c.DMID == dmID {
			return c
		}
	}
	return nil
}

func (s *Snapshot) clone() *Snapshot {
	next := *s
	return &next
}
