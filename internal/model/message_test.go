package model

import "testing"

func i64(v int64) *int64 { return &v }

func TestSortNewestFirst(t *testing.T) {
	msgs := []*Message{
		{ID: "a", MessageID: i64(1), CreatedAt: 100},
		{ID: "optimistic", CreatedAt: 400},
		{ID: "c", MessageID: i64(3), CreatedAt: 300},
		{ID: "b", MessageID: i64(2), CreatedAt: 200},
	}
	SortNewestFirst(msgs)

	// The optimistic message has no sequence number, so its creation
	// time places it at the top.
	want := []string{"optimistic", "c", "b", "a"}
	for i, id := range want {
		if msgs[i].ID != id {
			t.Fatalf("order[%d] = %q, want %q (full order %v)", i, msgs[i].ID, id, ids(msgs))
		}
	}
}

func ids(msgs []*Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestIsSystem(t *testing.T) {
	tests := []struct {
		mt   MessageType
		want bool
	}{
		{MessageTypeNormal, false},
		{MessageTypeChannelStart, true},
		{MessageTypeJoinChannel, true},
		{MessageTypeAddFriend, true},
	}
	for _, tt := range tests {
		if got := IsSystem(&Message{MessageType: tt.mt}); got != tt.want {
			t.Errorf("IsSystem(%s) = %v, want %v", tt.mt, got, tt.want)
		}
	}
	if IsSystem(nil) {
		t.Error("IsSystem(nil) = true")
	}
}
