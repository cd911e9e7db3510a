package line

// Webhook payload types, as delivered by the LINE platform. Only the fields
// the relay reads are modeled.

// EventTypeMessage is the webhook event kind carrying a user message.
const EventTypeMessage = "message"

// MessageTypeText is the message kind carrying plain text.
const MessageTypeText = "text"

// Event is a single entry of a webhook delivery's events list.
type Event struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
	Source  Source   `json:"source"`
}

// Message is the message attached to a "message" event.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Source identifies the sender of an event.
type Source struct {
	UserID string `json:"userId"`
}

// IsTextMessage reports whether the event carries a user text message.
func (e Event) IsTextMessage() bool {
	return e.Type == EventTypeMessage && e.Message != nil && e.Message.Type == MessageTypeText
}
