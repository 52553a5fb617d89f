package state

import (
	"fmt"

	"github.com/WinstonKong/bubble-chat/internal/model"
	"github.com/WinstonKong/bubble-chat/internal/unread"
)

// Reduce applies one event to a snapshot and returns the next snapshot.
// It is a pure function: no I/O, no hidden globals, and the input is
// never mutated. Whoever owns the event loop holds the current snapshot
// and must apply events one at a time, in receipt order.
//
// Every documented event is total over its declared shape: optional
// payload fields may be absent and missing correlation IDs turn the
// instruction into a no-op. An event of unrecognized dynamic type is a
// programming error and panics.
func Reduce(s *Snapshot, ev Event) *Snapshot {
	switch ev := ev.(type) {
	case ConnectionChanged:
		next := s.clone()
		next.Connection = ev.Status
		return next

	case InitialSnapshot:
		next := s.clone()
		if !ev.OK {
			next.LoadStatus = LoadFailed
			return next
		}
		next.LoadStatus = LoadOK
		next.User = overlayUser(s.User, ev.User)
		next.Channels = mergeChannels(s.Channels, ev.Channels)
		return next

	case MessagesMerged:
		next := s.clone()
		next.Messages = mergeMessages(s.Messages, ev.Messages)
		applyReadInfo(next, newlyKnown(s, ev.Messages))
		return next

	case MessagePushed:
		if ev.Message == nil || ev.Message.ID == "" {
			return s
		}
		next := s.clone()
		_, known := s.Messages[ev.Message.ID]
		next.Messages = mergeMessages(s.Messages, map[string]*model.Message{ev.Message.ID: ev.Message})
		// A duplicate delivery merges but must not count twice.
		if !known && ev.Message.UserID != s.UserID && ev.Message.ChannelID != "" {
			next.Unread = mergeUnread(s.Unread, map[string]int{
				ev.Message.ChannelID: s.Unread[ev.Message.ChannelID] + 1,
			})
		}
		return next

	case ChannelsUpdated:
		next := s.clone()
		next.Channels = mergeChannels(s.Channels, ev.Channels)
		next.Messages = mergeMessages(s.Messages, ev.Messages)
		applyReadInfo(next, newlyKnown(s, ev.Messages))
		return next

	case FriendRequestsUpdated:
		next := s.clone()
		next.FriendRequests = mergeFriendRequests(s.FriendRequests, ev.Requests)
		return next

	case FriendRequestResolved:
		next := s.clone()
		next.User = overlayUser(s.User, ev.User)
		next.Users = mergeUsers(s.Users, ev.Users)
		next.Channels = mergeChannels(s.Channels, ev.Channels)
		next.Messages = mergeMessages(s.Messages, ev.Messages)
		next.FriendRequests = mergeFriendRequests(s.FriendRequests, ev.Requests)
		applyReadInfo(next, newlyKnown(s, ev.Messages))
		return next

	case SelfUpdated:
		if ev.User == nil {
			return s
		}
		next := s.clone()
		next.User = overlayUser(s.User, ev.User)
		return next

	case SelfAndUsersUpdated:
		next := s.clone()
		next.User = overlayUser(s.User, ev.User)
		next.Users = mergeUsers(s.Users, ev.Users)
		return next

	case UsersUpdated:
		next := s.clone()
		next.Users = mergeUsers(s.Users, ev.Users)
		return next

	case ReadStateChanged:
		next := s.clone()
		next.ReadCursors = mergeCursors(s.ReadCursors, ev.Read)
		next.Unread = mergeUnread(s.Unread, ev.Unread)
		return next

	case OpenChannelChanged:
		next := s.clone()
		next.OpenChannelID = ev.ChannelID
		return next

	default:
		panic(fmt.Sprintf("state: unknown event type %T", ev))
	}
}

// applyReadInfo reruns unread reconciliation over a merged batch and
// folds the result into the snapshot under construction.
func applyReadInfo(next *Snapshot, batch []*model.Message) {
	if len(batch) == 0 {
		return
	}
	res := unread.MergeBatch(next.UserID, batch, next.ReadCursors, next.Unread)
	next.ReadCursors = mergeCursors(next.ReadCursors, res.Read)
	next.Unread = mergeUnread(next.Unread, res.Unread)
}

// newlyKnown filters an update down to messages the previous snapshot
// had not seen. Only these count toward unread reconciliation, which
// makes re-applying the same batch a no-op.
func newlyKnown(prev *Snapshot, upd map[string]*model.Message) []*model.Message {
	if len(upd) == 0 {
		return nil
	}
	msgs := make([]*model.Message, 0, len(upd))
	for id, m := range upd {
		if m == nil || id == "" {
			continue
		}
		if _, known := prev.Messages[id]; known {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs
}
