package checkout

import (
	"context"
	"sync"

	"github.com/gaborage/go-bricks/logger"
)

// Dispatch is the outcome of opening one seller's conversation.
type Dispatch struct {
	Message Message `json:"message"`
	Link    string  `json:"link,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Sequencer opens the sellers' conversations one per OpenNext call.
type Sequencer struct {
	mu         sync.Mutex
	messages   []Message
	cursor     int
	channel    Channel
	dispatched []Dispatch
	logger     logger.Logger
}

func NewSequencer(messages []Message, channel Channel, log logger.Logger) *Sequencer {
	return &Sequencer{
		messages: messages,
		channel:  channel,
		logger:   log,
	}
}

// OpenNext dispatches the next seller's message and advances. A channel error
// is recorded on the dispatch and still advances. It returns false once every
// message has been dispatched.
func (s *Sequencer) OpenNext(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= len(s.messages) {
		return false
	}

	msg := s.messages[s.cursor]
	s.cursor++

	d := Dispatch{Message: msg}
	link, err := s.channel.Open(ctx, msg.Phone, msg.Text)
	if err != nil {
		s.logger.Warn().Err(err).Str("sellerId", msg.SellerID).Msg("Failed to open seller channel")
		d.Error = err.Error()
	} else {
		d.Link = link
	}
	s.dispatched = append(s.dispatched, d)
	return true
}

// Remaining returns the number of sellers not yet dispatched.
func (s *Sequencer) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages) - s.cursor
}

// Dispatched returns the dispatches made so far, in order.
func (s *Sequencer) Dispatched() []Dispatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Dispatch(nil), s.dispatched...)
}

// Messages returns every message of the checkout.
func (s *Sequencer) Messages() []Message {
	return append([]Message(nil), s.messages...)
}
