package domain

import "time"

// ChatSender indicates which side of the awaiting-info dialogue wrote a
// message.
type ChatSender string

const (
	ChatSenderAdmin  ChatSender = "Admin"
	ChatSenderClient ChatSender = "Client"
)

// ChatMessage is one entry in a ticket's append-only conversation log.
// Entries are never edited or removed; the persisted array order is the
// authoritative ordering, the timestamp is informational only.
type ChatMessage struct {
	ID        string     `json:"id"`
	Sender    ChatSender `json:"sender"`
	AdminName string     `json:"admin_name,omitempty"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}
