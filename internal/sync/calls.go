package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/WinstonKong/bubble-chat/internal/model"
	"github.com/WinstonKong/bubble-chat/internal/state"
)

// ErrRejected is returned when the server acknowledges a request with
// ok:false. Recovery is caller-specific: resend the message, retry the
// form submit.
var ErrRejected = errors.New("sync: request rejected by server")

// Outbound request names.
const (
	opFetchUser           = "fetchUser"
	opFetchFriends        = "fetchFriends"
	opFetchMessages       = "fetchMessages"
	opSendFriendRequest   = "sendFriendRequest"
	opUpdateFriendRequest = "updateFriendRequest"
	opCreateChannel       = "createChannel"
	opAddUsersToChannel   = "addUsersToChannel"
	opUpdateChannelName   = "updateChannelName"
	opLeaveChannel        = "leaveChannel"
	opUpdateBio           = "updateBio"
	opUpdateNickname      = "updateNickname"
	opSendMessage         = "userSendMessage"
	opDeleteFriend        = "deleteFriend"
)

type channelsAndMessages struct {
	Channels map[string]*model.Channel `json:"channels"`
	Messages map[string]*model.Message `json:"messages"`
}

type selfAndUsers struct {
	Self  *model.User            `json:"self"`
	Users map[string]*model.User `json:"users"`
}

// FetchUser looks a user up by ID or username and merges the result.
func (e *Engine) FetchUser(ctx context.Context, uid, username string) (*model.User, error) {
	if uid == "" && username == "" {
		return nil, errors.New("fetch user: need an id or a username")
	}
	payload := struct {
		UID      string `json:"uid,omitempty"`
		Username string `json:"username,omitempty"`
	}{uid, username}

	var user model.User
	if err := e.call(ctx, opFetchUser, payload, &user); err != nil {
		return nil, err
	}
	if user.ID != "" {
		e.Dispatch(state.UsersUpdated{Users: map[string]*model.User{user.ID: &user}})
	}
	return &user, nil
}

// FetchFriends refreshes the current user's projection along with their
// friends'.
func (e *Engine) FetchFriends(ctx context.Context) error {
	payload := struct {
		UID string `json:"uid"`
	}{e.Snapshot().UserID}

	var data selfAndUsers
	if err := e.call(ctx, opFetchFriends, payload, &data); err != nil {
		return err
	}
	e.Dispatch(state.SelfAndUsersUpdated{User: data.Self, Users: data.Users})
	return nil
}

// FetchMessages pages a channel's history backwards from before, or
// from the newest message when before is nil.
func (e *Engine) FetchMessages(ctx context.Context, channelID string, before *int64) error {
	payload := struct {
		ChannelID     string `json:"channelID"`
		LastMessageID *int64 `json:"lastMessageID,omitempty"`
	}{channelID, before}

	var msgs map[string]*model.Message
	if err := e.call(ctx, opFetchMessages, payload, &msgs); err != nil {
		return err
	}
	e.Dispatch(state.MessagesMerged{Messages: msgs})
	return nil
}

// SendFriendRequest asks another user to become friends.
func (e *Engine) SendFriendRequest(ctx context.Context, receiverID, message string) error {
	payload := struct {
		SenderID   string `json:"senderID"`
		ReceiverID string `json:"receiverID"`
		Message    string `json:"message,omitempty"`
	}{e.Snapshot().UserID, receiverID, message}

	var reqs map[string]*model.FriendRequest
	if err := e.call(ctx, opSendFriendRequest, payload, &reqs); err != nil {
		return err
	}
	e.Dispatch(state.FriendRequestsUpdated{Requests: reqs})
	return nil
}

// ResolveFriendRequest accepts or refuses a pending request. The accept
// path merges the server's atomic payload: the new friend, the fresh DM
// channel, and its greeting messages arrive as one snapshot update.
func (e *Engine) ResolveFriendRequest(ctx context.Context, requestID string, accept bool) error {
	req := e.Snapshot().FriendRequests[requestID]
	if req == nil {
		return fmt.Errorf("resolve friend request: unknown request %q", requestID)
	}
	resolved := model.FriendRequestRefused
	if accept {
		resolved = model.FriendRequestAccepted
	}
	payload := struct {
		ID         string                    `json:"id"`
		SenderID   string                    `json:"senderID"`
		ReceiverID string                    `json:"receiverID"`
		Status     model.FriendRequestStatus `json:"status"`
	}{req.ID, req.SenderID, req.ReceiverID, resolved}

	var data struct {
		User     *model.User                     `json:"user"`
		Users    map[string]*model.User          `json:"users"`
		Channels map[string]*model.Channel       `json:"channels"`
		Messages map[string]*model.Message       `json:"messages"`
		Requests map[string]*model.FriendRequest `json:"friendRequests"`
	}
	if err := e.call(ctx, opUpdateFriendRequest, payload, &data); err != nil {
		return err
	}

	if accept {
		e.Dispatch(state.FriendRequestResolved{
			User:     data.User,
			Users:    data.Users,
			Channels: data.Channels,
			Messages: data.Messages,
			Requests: data.Requests,
		})
	} else {
		e.Dispatch(state.FriendRequestsUpdated{Requests: data.Requests})
	}
	return nil
}

// CreateChannel creates a group channel with the given members.
func (e *Engine) CreateChannel(ctx context.Context, memberIDs []string, name string) error {
	payload := struct {
		CreatorID   string   `json:"creatorID"`
		OtherUIDs   []string `json:"otherUIDs"`
		ChannelName string   `json:"channelName,omitempty"`
	}{e.Snapshot().UserID, memberIDs, name}
	return e.channelCall(ctx, opCreateChannel, payload)
}

// AddUsersToChannel invites more members into a group channel.
func (e *Engine) AddUsersToChannel(ctx context.Context, channelID string, uids []string) error {
	payload := struct {
		UID       string   `json:"uid"`
		ChannelID string   `json:"channelID"`
		UIDs      []string `json:"uids"`
	}{e.Snapshot().UserID, channelID, uids}
	return e.channelCall(ctx, opAddUsersToChannel, payload)
}

// RenameChannel renames a group channel.
func (e *Engine) RenameChannel(ctx context.Context, channelID, newName string) error {
	payload := struct {
		UID       string `json:"uid"`
		ChannelID string `json:"channelID"`
		NewName   string `json:"newName"`
	}{e.Snapshot().UserID, channelID, newName}
	return e.channelCall(ctx, opUpdateChannelName, payload)
}

// LeaveChannel removes the current user from a channel. The cached
// channel entry survives; only the active-view pointer is cleared when
// it pointed here.
func (e *Engine) LeaveChannel(ctx context.Context, channelID string) error {
	payload := struct {
		UID       string `json:"uid"`
		ChannelID string `json:"channelID"`
	}{e.Snapshot().UserID, channelID}

	if err := e.channelCall(ctx, opLeaveChannel, payload); err != nil {
		return err
	}
	if e.Snapshot().OpenChannelID == channelID {
		e.Dispatch(state.OpenChannelChanged{})
	}
	return nil
}

// UpdateBio updates the current user's bio.
func (e *Engine) UpdateBio(ctx context.Context, bio string) error {
	payload := struct {
		UID string `json:"uid"`
		Bio string `json:"bio"`
	}{e.Snapshot().UserID, bio}
	return e.profileCall(ctx, opUpdateBio, payload)
}

// UpdateNickname updates the current user's nickname.
func (e *Engine) UpdateNickname(ctx context.Context, nickname string) error {
	payload := struct {
		UID      string `json:"uid"`
		Nickname string `json:"nickname"`
	}{e.Snapshot().UserID, nickname}
	return e.profileCall(ctx, opUpdateNickname, payload)
}

// DeleteFriend removes a friend relation in both directions.
func (e *Engine) DeleteFriend(ctx context.Context, friendUID string) error {
	payload := struct {
		UID       string `json:"uid"`
		FriendUID string `json:"friendUID"`
	}{e.Snapshot().UserID, friendUID}

	var data selfAndUsers
	if err := e.call(ctx, opDeleteFriend, payload, &data); err != nil {
		return err
	}
	e.Dispatch(state.SelfAndUsersUpdated{User: data.Self, Users: data.Users})
	return nil
}

// SendMessage writes an optimistic placeholder into the snapshot before
// the round trip, then delivers. Returns the local message ID; on
// failure the placeholder stays, marked failed, waiting for a manual
// ResendMessage.
func (e *Engine) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	if channelID == "" || content == "" {
		return "", errors.New("send message: empty channel or content")
	}
	local := &model.Message{
		ID:          uuid.NewString(),
		ChannelID:   channelID,
		UserID:      e.Snapshot().UserID,
		Content:     content,
		MessageType: model.MessageTypeNormal,
		CreatedAt:   time.Now().UnixMilli(),
		SendStatus:  model.SendStatusSending,
	}
	e.Dispatch(state.MessagePushed{Message: local})
	return local.ID, e.deliver(ctx, local)
}

// ResendMessage retries a failed send, reusing the same local ID so the
// placeholder is updated in place rather than duplicated.
func (e *Engine) ResendMessage(ctx context.Context, localID string) error {
	msg := e.Snapshot().Messages[localID]
	if msg == nil {
		return fmt.Errorf("resend: unknown message %q", localID)
	}
	if msg.SendStatus != model.SendStatusFailed {
		return fmt.Errorf("resend: message %q is not failed", localID)
	}

	sending := *msg
	sending.SendStatus = model.SendStatusSending
	e.Dispatch(state.MessagesMerged{Messages: map[string]*model.Message{localID: &sending}})
	return e.deliver(ctx, &sending)
}

func (e *Engine) deliver(ctx context.Context, local *model.Message) error {
	payload := struct {
		UID       string `json:"uid"`
		ChannelID string `json:"channelID"`
		Content   string `json:"content"`
	}{local.UserID, local.ChannelID, local.Content}

	ack, err := e.tr.Request(ctx, opSendMessage, payload)
	if err != nil || !ack.OK {
		failed := *local
		failed.SendStatus = model.SendStatusFailed
		e.Dispatch(state.MessagesMerged{Messages: map[string]*model.Message{local.ID: &failed}})
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}
		return ErrRejected
	}

	sent := *local
	sent.SendStatus = model.SendStatusSent
	upd := map[string]*model.Message{local.ID: &sent}

	// The server record carries the assigned messageID; merging it
	// advances the read cursor past the user's own send.
	var server model.Message
	if err := json.Unmarshal(ack.Data, &server); err == nil && server.ID != "" {
		upd[server.ID] = &server
	}
	e.Dispatch(state.MessagesMerged{Messages: upd})
	return nil
}

// MarkChannelRead records that the channel's backlog is in view: the
// transient count resets and the cursor advances to the newest
// sequenced message.
func (e *Engine) MarkChannelRead(channelID string) {
	if channelID == "" {
		return
	}
	evt := state.ReadStateChanged{Unread: map[string]int{channelID: 0}}
	if id, ok := e.Snapshot().LatestMessageID(channelID); ok {
		evt.Read = map[string]int64{channelID: id}
	}
	e.Dispatch(evt)
}

// OpenChannel moves the active view and marks the channel read.
func (e *Engine) OpenChannel(channelID string) {
	e.Dispatch(state.OpenChannelChanged{ChannelID: channelID})
	e.MarkChannelRead(channelID)
}

// call sends a request and decodes a successful ack into out.
func (e *Engine) call(ctx context.Context, op string, payload, out any) error {
	ack, err := e.tr.Request(ctx, op, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ack.OK {
		return fmt.Errorf("%s: %w", op, ErrRejected)
	}
	if out == nil || len(ack.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(ack.Data, out); err != nil {
		return fmt.Errorf("%s: decode ack: %w", op, err)
	}
	return nil
}

func (e *Engine) channelCall(ctx context.Context, op string, payload any) error {
	var data channelsAndMessages
	if err := e.call(ctx, op, payload, &data); err != nil {
		return err
	}
	e.Dispatch(state.ChannelsUpdated{Channels: data.Channels, Messages: data.Messages})
	return nil
}

func (e *Engine) profileCall(ctx context.Context, op string, payload any) error {
	var user model.User
	if err := e.call(ctx, op, payload, &user); err != nil {
		return err
	}
	e.Dispatch(state.SelfUpdated{User: &user})
	return nil
}
