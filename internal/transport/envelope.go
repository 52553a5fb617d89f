package transport

import "encoding/json"

// Envelope is the JSON frame exchanged with the chat server. Outbound
// requests carry a Seq; the server answers with a frame echoing it in
// Ack together with the {ok, data} result. Frames without an Ack are
// server pushes named by Type.
type Envelope struct {
	Type string          `json:"type"`
	Seq  uint64          `json:"seq,omitempty"`
	Ack  uint64          `json:"ack,omitempty"`
	OK   bool            `json:"ok,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Ack is the acknowledgement of one outbound request.
type Ack struct {
	OK   bool
	Data json.RawMessage
}

// joinPayload is the connect handshake: it announces the user and their
// device-local read positions so the server can answer with unread info
// for other devices of the same account.
type joinPayload struct {
	UID      string           `json:"uid"`
	ReadInfo map[string]int64 `json:"readInfo,omitempty"`
}
