package model

import "strings"

const groupNameMembers = 5

// DMID derives the deterministic pairing key for a DM channel from its
// two participant IDs. The lexicographically larger ID comes first, so
// both participants derive the same key.
func DMID(a, b string) string {
	if a > b {
		return a + "_" + b
	}
	return b + "_" + a
}

// IsDirect reports whether c is a two-party DM channel.
func IsDirect(c *Channel) bool {
	return c != nil && c.ChannelType == ChannelTypeDirectMessage
}

// DMPeerID returns the other participant of a DM channel, or "" when c
// is not a DM or uid is not a member.
func DMPeerID(c *Channel, uid string) string {
	if !IsDirect(c) {
		return ""
	}
	for _, id := range c.UserIDs {
		if id != uid {
			return id
		}
	}
	return ""
}

// DefaultGroupName builds a group name from member nicknames, truncated
// after five members.
func DefaultGroupName(members []*User) string {
	names := make([]string, 0, groupNameMembers)
	for _, u := range members {
		if len(names) == groupNameMembers {
			return strings.Join(names, ", ") + "..."
		}
		names = append(names, u.Nickname)
	}
	return strings.Join(names, ", ")
}
