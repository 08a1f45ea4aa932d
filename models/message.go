package models

import "time"

// Message is a single direct message between the shopper and a counterpart.
type Message struct {
	ID         string    `json:"_id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Body       string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Involves reports whether userID is the sender or receiver of m.
func (m Message) Involves(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

type MessagesResponse struct {
	Envelope
	Messages []Message `json:"messages"`
}

type SendMessageRequest struct {
	Body string `json:"message"`
}

type SendMessageResponse struct {
	Envelope
	Data Message `json:"data"`
}
