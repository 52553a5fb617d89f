package model

// ChannelType distinguishes two-party DMs from multi-member groups.
type ChannelType string

const (
	ChannelTypeDirectMessage ChannelType = "DirectMessage"
	ChannelTypeGroup         ChannelType = "Group"
)

// MessageType classifies a message. Anything other than Normal is a
// synthetic system message rendered without an author bubble.
type MessageType string

const (
	MessageTypeNormal MessageType = "Normal"
	// MessageTypeChannelStart marks the oldest retrievable message of a
	// channel; its presence terminates backward pagination.
	MessageTypeChannelStart MessageType = "ChannelStart"
	MessageTypeJoinChannel  MessageType = "JoinChannel"
	MessageTypeAddFriend    MessageType = "AddFriend"
)

// SendStatus tracks locally-originated messages through the ack round trip.
// Server-delivered messages carry no send status.
type SendStatus string

const (
	SendStatusSending SendStatus = "sending"
	SendStatusSent    SendStatus = "sent"
	SendStatusFailed  SendStatus = "failed"
)

// FriendRequestStatus is the friend-request lifecycle. Accepted and
// Refused are terminal; Read is not.
type FriendRequestStatus string

const (
	FriendRequestSent     FriendRequestStatus = "Sent"
	FriendRequestRead     FriendRequestStatus = "Read"
	FriendRequestAccepted FriendRequestStatus = "Accepted"
	FriendRequestRefused  FriendRequestStatus = "Refused"
)

// User is the client's read-only projection of a server identity record.
type User struct {
	ID          string   `json:"id"`
	Username    string   `json:"username,omitempty"`
	Nickname    string   `json:"nickname,omitempty"`
	Bio         string   `json:"bio,omitempty"`
	FriendIDs   []string `json:"friendIDs,omitempty"`
	FriendOfIDs []string `json:"friendOfIDs,omitempty"`
}

// Channel is a conversation scope. A DirectMessage channel has exactly
// two members and a deterministic DMID; a Group channel has a name.
type Channel struct {
	ID          string      `json:"id"`
	ChannelType ChannelType `json:"channelType,omitempty"`
	Name        string      `json:"name,omitempty"`
	OwnerID     string      `json:"ownerID,omitempty"`
	AdminIDs    []string    `json:"adminIDs,omitempty"`
	UserIDs     []string    `json:"userIDs,omitempty"`
	DMID        string      `json:"dmID,omitempty"`
}

// Message is a channel message. ID is either a server-assigned record ID
// or a locally-generated optimistic token. MessageID is the per-channel
// monotonic sequence number and is assigned by the server only, so it is
// nil on optimistic messages awaiting acknowledgement.
type Message struct {
	ID          string      `json:"id"`
	MessageID   *int64      `json:"messageID,omitempty"`
	ChannelID   string      `json:"channelID,omitempty"`
	UserID      string      `json:"userID,omitempty"`
	Content     string      `json:"content,omitempty"`
	MessageType MessageType `json:"messageType,omitempty"`
	CreatedAt   int64       `json:"createdAt,omitempty"`
	SendStatus  SendStatus  `json:"sendStatus,omitempty"`
}

// FriendRequest is a pending or resolved friend request.
type FriendRequest struct {
	ID         string              `json:"id"`
	SenderID   string              `json:"senderID,omitempty"`
	ReceiverID string              `json:"receiverID,omitempty"`
	Message    string              `json:"message,omitempty"`
	Status     FriendRequestStatus `json:"status,omitempty"`
	CreatedAt  int64               `json:"createdAt,omitempty"`
}
