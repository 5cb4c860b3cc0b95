package domain

// Message is a single short text message persisted in the messages table.
type Message struct {
	MessageID string `json:"message_id" dynamodbav:"message_id"`
	Content   string `json:"content" dynamodbav:"content"`
}
