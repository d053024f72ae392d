package models

// RecipientField is the body field that addresses a message. It is removed
// before the message is queued.
const RecipientField = "recipient"

// Message is an untyped JSON object queued for a recipient.
type Message map[string]any

// Recipient returns the raw recipient value and whether the field was present.
func (m Message) Recipient() (any, bool) {
	v, ok := m[RecipientField]
	return v, ok
}

// WithoutRecipient returns a shallow copy of m without the recipient field.
func (m Message) WithoutRecipient() Message {
	out := make(Message, len(m))
	for k, v := range m {
		if k == RecipientField {
			continue
		}
		out[k] = v
	}
	return out
}
