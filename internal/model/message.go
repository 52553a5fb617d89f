package model

import "sort"

// MoreRecent reports whether a sorts before b in newest-first order.
// Messages with server-assigned sequence numbers compare by MessageID;
// otherwise creation time decides, which keeps optimistic messages in
// composition order until the server assigns their position.
func MoreRecent(a, b *Message) bool {
	if a.MessageID != nil && b.MessageID != nil {
		return *a.MessageID > *b.MessageID
	}
	return a.CreatedAt > b.CreatedAt
}

// SortNewestFirst sorts msgs in place, newest first.
func SortNewestFirst(msgs []*Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return MoreRecent(msgs[i], msgs[j])
	})
}

// IsSystem reports whether m is a synthetic non-content message.
func IsSystem(m *Message) bool {
	if m == nil {
		return false
	}
	switch m.MessageType {
	case MessageTypeChannelStart, MessageTypeJoinChannel, MessageTypeAddFriend:
		return true
	}
	return false
}
