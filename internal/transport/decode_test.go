package transport

import (
	"encoding/json"
	"testing"

	"github.com/WinstonKong/bubble-chat/internal/state"
)

func TestDecodeUserInfo(t *testing.T) {
	env := Envelope{
		Type: "userInfo",
		OK:   true,
		Data: json.RawMessage(`{
			"id": "me", "username": "kong", "nickname": "Kong",
			"channels": [{"id": "c1", "channelType": "Group", "name": "room"}]
		}`),
	}

	evt, err := DecodeEvent(env)
	if err != nil {
		t.Fatal(err)
	}
	snap, ok := evt.(state.InitialSnapshot)
	if !ok {
		t.Fatalf("event type = %T, want InitialSnapshot", evt)
	}
	if !snap.OK || snap.User == nil || snap.User.Username != "kong" {
		t.Errorf("user = %+v, want username kong", snap.User)
	}
	if snap.Channels["c1"] == nil || snap.Channels["c1"].Name != "room" {
		t.Errorf("channels = %+v, want c1 named room", snap.Channels)
	}
}

func TestDecodeUserInfoFailure(t *testing.T) {
	evt, err := DecodeEvent(Envelope{Type: "userInfo", OK: false})
	if err != nil {
		t.Fatal(err)
	}
	snap, ok := evt.(state.InitialSnapshot)
	if !ok || snap.OK {
		t.Errorf("event = %+v, want failed InitialSnapshot", evt)
	}
}

func TestDecodeNewMessage(t *testing.T) {
	env := Envelope{
		Type: "newMessage",
		Data: json.RawMessage(`{"id": "m1", "messageID": 5, "channelID": "c1", "userID": "other", "content": "hi"}`),
	}
	evt, err := DecodeEvent(env)
	if err != nil {
		t.Fatal(err)
	}
	push, ok := evt.(state.MessagePushed)
	if !ok {
		t.Fatalf("event type = %T, want MessagePushed", evt)
	}
	if push.Message.ID != "m1" || push.Message.MessageID == nil || *push.Message.MessageID != 5 {
		t.Errorf("message = %+v, want m1 with messageID 5", push.Message)
	}
}

func TestDecodeMessageWithoutSequence(t *testing.T) {
	// Optional messageID absent: must decode to nil, not zero.
	env := Envelope{
		Type: "newMessage",
		Data: json.RawMessage(`{"id": "local-1", "channelID": "c1", "content": "hi"}`),
	}
	evt, err := DecodeEvent(env)
	if err != nil {
		t.Fatal(err)
	}
	if push := evt.(state.MessagePushed); push.Message.MessageID != nil {
		t.Errorf("messageID = %v, want nil when absent", *push.Message.MessageID)
	}
}

func TestDecodeUpdateChannels(t *testing.T) {
	env := Envelope{
		Type: "updateChannels",
		Data: json.RawMessage(`{
			"channels": {"c1": {"id": "c1", "name": "renamed"}},
			"messages": {"m1": {"id": "m1", "messageID": 2, "channelID": "c1", "userID": "other"}}
		}`),
	}
	evt, err := DecodeEvent(env)
	if err != nil {
		t.Fatal(err)
	}
	upd, ok := evt.(state.ChannelsUpdated)
	if !ok {
		t.Fatalf("event type = %T, want ChannelsUpdated", evt)
	}
	if upd.Channels["c1"] == nil || upd.Messages["m1"] == nil {
		t.Errorf("decoded = %+v, want channel c1 and message m1", upd)
	}
}

func TestDecodeUpdateChannelsWithoutMessages(t *testing.T) {
	// The messages field is optional.
	env := Envelope{
		Type: "updateChannels",
		Data: json.RawMessage(`{"channels": {"c1": {"id": "c1"}}}`),
	}
	evt, err := DecodeEvent(env)
	if err != nil {
		t.Fatal(err)
	}
	if upd := evt.(state.ChannelsUpdated); upd.Messages != nil {
		t.Errorf("messages = %+v, want nil when absent", upd.Messages)
	}
}

func TestDecodeAcceptedFriendRequest(t *testing.T) {
	env := Envelope{
		Type: "acceptedFriendRequest",
		Data: json.RawMessage(`{
			"user": {"id": "me", "friendIDs": ["u2"]},
			"users": {"u2": {"id": "u2"}},
			"channels": {"dm": {"id": "dm", "channelType": "DirectMessage"}},
			"friendRequests": {"r1": {"id": "r1", "status": "Accepted"}}
		}`),
	}
	evt, err := DecodeEvent(env)
	if err != nil {
		t.Fatal(err)
	}
	res, ok := evt.(state.FriendRequestResolved)
	if !ok {
		t.Fatalf("event type = %T, want FriendRequestResolved", evt)
	}
	if res.User == nil || res.Users["u2"] == nil || res.Channels["dm"] == nil || res.Requests["r1"] == nil {
		t.Errorf("decoded = %+v, missing parts of the atomic payload", res)
	}
}

func TestDecodeChannelUnread(t *testing.T) {
	env := Envelope{Type: "channelUnread", Data: json.RawMessage(`{"c1": 3}`)}
	evt, err := DecodeEvent(env)
	if err != nil {
		t.Fatal(err)
	}
	rs, ok := evt.(state.ReadStateChanged)
	if !ok || rs.Unread["c1"] != 3 {
		t.Errorf("event = %+v, want unread c1:3", evt)
	}
}

func TestDecodeUnknownType(t *testing.T) {
	if _, err := DecodeEvent(Envelope{Type: "presenceBlast"}); err == nil {
		t.Error("unknown push type should error")
	}
}

func TestDecodeMalformedPayload(t *testing.T) {
	if _, err := DecodeEvent(Envelope{Type: "messages", Data: json.RawMessage(`["not", "a", "map"]`)}); err == nil {
		t.Error("malformed payload should error (and be dropped by the adapter)")
	}
}
