package domain

import "encoding/json"

// Conversation is the ordered sequence of messages shared by the nodes of a run.
// Oldest message first.
//
// A Conversation is append-only: Append never modifies the receiver and the
// returned value never shares a writable backing array with it. Nodes receive a
// read snapshot and return only the message to add.
type Conversation struct {
	messages []Message
}

// NewConversation creates a conversation seeded with the given messages.
func NewConversation(msgs ...Message) Conversation {
	return Conversation{}.Append(msgs...)
}

// Append is the merge reducer of the runtime.
// It returns a new Conversation containing the receiver's messages followed by msgs.
// Duplicates are kept: every call contributes all of its messages.
func (c Conversation) Append(msgs ...Message) Conversation {
	if len(msgs) == 0 {
		return c
	}
	next := make([]Message, 0, len(c.messages)+len(msgs))
	next = append(next, c.messages...)
	next = append(next, msgs...)
	return Conversation{messages: next}
}

// Messages returns a copy of the message sequence.
func (c Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c Conversation) Len() int {
	return len(c.messages)
}

// IsEmpty reports whether the conversation has no messages.
func (c Conversation) IsEmpty() bool {
	return len(c.messages) == 0
}

// At returns the message at index i.
// It panics if i is out of range, like a slice index.
func (c Conversation) At(i int) Message {
	return c.messages[i]
}

// Last returns the most recently appended message.
func (c Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// MarshalJSON encodes the conversation as a plain array of messages.
func (c Conversation) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Messages())
}

// UnmarshalJSON decodes a plain array of messages.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return err
	}
	*c = NewConversation(msgs...)
	return nil
}
