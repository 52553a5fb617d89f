package state

import (
	"maps"

	"github.com/WinstonKong/bubble-chat/internal/model"
)

// Overlay merge: updates are shallow unions keyed by entity ID, and
// within an entity, zero-valued fields of the update preserve the prior
// value. Deletes do not exist; re-applying an update is a no-op.

func overlayUser(old, upd *model.User) *model.User {
	if upd == nil {
		return old
	}
	if old == nil {
		u := *upd
		return &u
	}
	merged := *old
	if upd.Username != "" {
		merged.Username = upd.Username
	}
	if upd.Nickname != "" {
		merged.Nickname = upd.Nickname
	}
	if upd.Bio != "" {
		merged.Bio = upd.Bio
	}
	if upd.FriendIDs != nil {
		merged.FriendIDs = upd.FriendIDs
	}
	if upd.FriendOfIDs != nil {
		merged.FriendOfIDs = upd.FriendOfIDs
	}
	return &merged
}

func overlayChannel(old, upd *model.Channel) *model.Channel {
	if upd == nil {
		return old
	}
	if old == nil {
		c := *upd
		return &c
	}
	merged := *old
	if upd.ChannelType != "" {
		merged.ChannelType = upd.ChannelType
	}
	if upd.Name != "" {
		merged.Name = upd.Name
	}
	if upd.OwnerID != "" {
		merged.OwnerID = upd.OwnerID
	}
	if upd.AdminIDs != nil {
		merged.AdminIDs = upd.AdminIDs
	}
	if upd.UserIDs != nil {
		merged.UserIDs = upd.UserIDs
	}
	if upd.DMID != "" {
		merged.DMID = upd.DMID
	}
	return &merged
}

func overlayMessage(old, upd *model.Message) *model.Message {
	if upd == nil {
		return old
	}
	if old == nil {
		m := *upd
		return &m
	}
	merged := *old
	if upd.MessageID != nil {
		merged.MessageID = upd.MessageID
	}
	if upd.ChannelID != "" {
		merged.ChannelID = upd.ChannelID
	}
	if upd.UserID != "" {
		merged.UserID = upd.UserID
	}
	if upd.Content != "" {
		merged.Content = upd.Content
	}
	if upd.MessageType != "" {
		merged.MessageType = upd.MessageType
	}
	if upd.CreatedAt != 0 {
		merged.CreatedAt = upd.CreatedAt
	}
	if upd.SendStatus != "" {
		merged.SendStatus = upd.SendStatus
	}
	return &merged
}

func overlayFriendRequest(old, upd *model.FriendRequest) *model.FriendRequest {
	if upd == nil {
		return old
	}
	if old == nil {
		r := *upd
		return &r
	}
	merged := *old
	if upd.SenderID != "" {
		merged.SenderID = upd.SenderID
	}
	if upd.ReceiverID != "" {
		merged.ReceiverID = upd.ReceiverID
	}
	if upd.Message != "" {
		merged.Message = upd.Message
	}
	if upd.Status != "" {
		merged.Status = upd.Status
	}
	if upd.CreatedAt != 0 {
		merged.CreatedAt = upd.CreatedAt
	}
	return &merged
}

func mergeUsers(old, upd map[string]*model.User) map[string]*model.User {
	if len(upd) == 0 {
		return old
	}
	merged := maps.Clone(old)
	if merged == nil {
		merged = make(map[string]*model.User, len(upd))
	}
	for id, u := range upd {
		if u == nil || id == "" {
			continue
		}
		merged[id] = overlayUser(merged[id], u)
	}
	return merged
}

func mergeChannels(old, upd map[string]*model.Channel) map[string]*model.Channel {
	if len(upd) == 0 {
		return old
	}
	merged := maps.Clone(old)
	if merged == nil {
		merged = make(map[string]*model.Channel, len(upd))
	}
	for id, c := range upd {
		if c == nil || id == "" {
			continue
		}
		merged[id] = overlayChannel(merged[id], c)
	}
	return merged
}

func mergeMessages(old, upd map[string]*model.Message) map[string]*model.Message {
	if len(upd) == 0 {
		return old
	}
	merged := maps.Clone(old)
	if merged == nil {
		merged = make(map[string]*model.Message, len(upd))
	}
	for id, m := range upd {
		if m == nil || id == "" {
			continue
		}
		merged[id] = overlayMessage(merged[id], m)
	}
	return merged
}

func mergeFriendRequests(old, upd map[string]*model.FriendRequest) map[string]*model.FriendRequest {
	if len(upd) == 0 {
		return old
	}
	merged := maps.Clone(old)
	if merged == nil {
		merged = make(map[string]*model.FriendRequest, len(upd))
	}
	for id, r := range upd {
		if r == nil || id == "" {
			continue
		}
		merged[id] = overlayFriendRequest(merged[id], r)
	}
	return merged
}

// mergeCursors advances read cursors monotonically: an update below the
// stored position is ignored.
func mergeCursors(old, upd map[string]int64) map[string]int64 {
	if len(upd) == 0 {
		return old
	}
	merged := maps.Clone(old)
	if merged == nil {
		merged = make(map[string]int64, len(upd))
	}
	for cid, id := range upd {
		if stored, ok := merged[cid]; !ok || id > stored {
			merged[cid] = id
		}
	}
	return merged
}

// mergeUnread replaces per-channel transient counts with the updated
// values (the unread engine already folded the prior count in).
func mergeUnread(old, upd map[string]int) map[string]int {
	if len(upd) == 0 {
		return old
	}
	merged := maps.Clone(old)
	if merged == nil {
		merged = make(map[string]int, len(upd))
	}
	for cid, n := range upd {
		if n < 0 {
			n = 0
		}
		merged[cid] = n
	}
	return merged
}
