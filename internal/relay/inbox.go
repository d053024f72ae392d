package relay

import "github.com/eldtechnologies/relay/internal/models"

// inboxStore holds the pending messages of every recipient.
// Callers must hold Relay.mu.
type inboxStore struct {
	inboxes map[string][]models.Message
}

func newInboxStore() *inboxStore {
	return &inboxStore{inboxes: make(map[string][]models.Message)}
}

// append queues msg at the tail of the recipient's inbox, creating it if needed.
func (s *inboxStore) append(recipient string, msg models.Message) {
	s.inboxes[recipient] = append(s.inboxes[recipient], msg)
}

// drain removes and returns the whole inbox. An unknown recipient yields an
// empty, non-nil slice.
func (s *inboxStore) drain(recipient string) []models.Message {
	msgs, ok := s.inboxes[recipient]
	if !ok {
		return []models.Message{}
	}
	delete(s.inboxes, recipient)
	return msgs
}

func (s *inboxStore) len(recipient string) int {
	return len(s.inboxes[recipient])
}

// count returns the number of non-empty inboxes.
func (s *inboxStore) count() int {
	return len(s.inboxes)
}

// pending returns the number of queued messages across all inboxes.
func (s *inboxStore) pending() int {
	n := 0
	for _, msgs := range s.inboxes {
		n += len(msgs)
	}
	return n
}

func (s *inboxStore) reset() {
	s.inboxes = make(map[string][]models.Message)
}
