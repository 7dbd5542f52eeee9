package domain

// Conversation is the append-only transcript sent to the model. The first
// entry is always the system instruction.
type Conversation struct {
	messages []Message
}

// NewConversation starts a transcript with the system instruction and the
// user query.
func NewConversation(system, query string) *Conversation {
	return &Conversation{messages: []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: query},
	}}
}

// Append adds one message at the end.
func (c *Conversation) Append(role, content string) {
	c.messages = append(c.messages, Message{Role: role, Content: content})
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}
