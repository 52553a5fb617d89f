package transport

import (
	"encoding/json"
	"fmt"

	"github.com/WinstonKong/bubble-chat/internal/model"
	"github.com/WinstonKong/bubble-chat/internal/state"
)

// Server push names. Outbound request names live in the sync package
// next to their callers; these are the unsolicited inbound ones.
const (
	pushUserInfo        = "userInfo"
	pushMessages        = "messages"
	pushNewMessage      = "newMessage"
	pushUpdateChannels  = "updateChannels"
	pushFriendRequests  = "friendRequests"
	pushAcceptedRequest = "acceptedFriendRequest"
	pushFriends         = "friends"
	pushSelf            = "self"
	pushChannelUnread   = "channelUnread"
)

// DecodeEvent turns a server push frame into its tagged reducer event.
// Unknown push types return an error and are dropped at this boundary,
// so the reducer only ever sees the closed event set.
func DecodeEvent(env Envelope) (state.Event, error) {
	switch env.Type {
	case pushUserInfo:
		if !env.OK {
			return state.InitialSnapshot{OK: false}, nil
		}
		var data struct {
			model.User
			Channels []*model.Channel `json:"channels"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		channels := make(map[string]*model.Channel, len(data.Channels))
		for _, c := range data.Channels {
			if c != nil && c.ID != "" {
				channels[c.ID] = c
			}
		}
		user := data.User
		return state.InitialSnapshot{OK: true, User: &user, Channels: channels}, nil

	case pushMessages:
		var msgs map[string]*model.Message
		if err := json.Unmarshal(env.Data, &msgs); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return state.MessagesMerged{Messages: msgs}, nil

	case pushNewMessage:
		var msg model.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return state.MessagePushed{Message: &msg}, nil

	case pushUpdateChannels:
		var data struct {
			Channels map[string]*model.Channel `json:"channels"`
			Messages map[string]*model.Message `json:"messages"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return state.ChannelsUpdated{Channels: data.Channels, Messages: data.Messages}, nil

	case pushFriendRequests:
		var reqs map[string]*model.FriendRequest
		if err := json.Unmarshal(env.Data, &reqs); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return state.FriendRequestsUpdated{Requests: reqs}, nil

	case pushAcceptedRequest:
		var data struct {
			User     *model.User                     `json:"user"`
			Users    map[string]*model.User          `json:"users"`
			Channels map[string]*model.Channel       `json:"channels"`
			Messages map[string]*model.Message       `json:"messages"`
			Requests map[string]*model.FriendRequest `json:"friendRequests"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return state.FriendRequestResolved{
			User:     data.User,
			Users:    data.Users,
			Channels: data.Channels,
			Messages: data.Messages,
			Requests: data.Requests,
		}, nil

	case pushFriends:
		var data struct {
			Self  *model.User            `json:"self"`
			Users map[string]*model.User `json:"users"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return state.SelfAndUsersUpdated{User: data.Self, Users: data.Users}, nil

	case pushSelf:
		var user model.User
		if err := json.Unmarshal(env.Data, &user); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return state.SelfUpdated{User: &user}, nil

	case pushChannelUnread:
		var counts map[string]int
		if err := json.Unmarshal(env.Data, &counts); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return state.ReadStateChanged{Unread: counts}, nil
	}

	return nil, fmt.Errorf("unknown push type %q", env.Type)
}
