// Package chat implements the client side of the conversation: the in-memory
// transcript and the send / guided-session flows that call the gateway.
package chat

import "sync"

// WelcomeText opens every transcript.
const WelcomeText = "Hello! I'm your psychological companion. I'm here to listen, understand, and help you navigate your thoughts and feelings. You can chat with me directly or start a guided session for more structured support. How can I help you today?"

// Message is one transcript entry.
type Message struct {
	Text   string `json:"text"`
	IsUser bool   `json:"isUser"`
}

// Transcript is the ordered, in-memory message list for one client session.
// It is never persisted. Entries are appended in the order events happen, so
// replies to overlapping sends land in completion order.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
	pending  int
	onChange func([]Message, bool)
}

// NewTranscript returns a transcript seeded with the welcome message.
func NewTranscript() *Transcript {
	return &Transcript{
		messages: []Message{{Text: WelcomeText, IsUser: false}},
	}
}

// OnChange registers fn to be called with a snapshot after every change.
// fn runs with no lock held.
func (t *Transcript) OnChange(fn func(messages []Message, loading bool)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Messages returns a copy of the entries in order.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Message(nil), t.messages...)
}

// Loading reports whether any gateway call is in flight.
func (t *Transcript) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending > 0
}

// Append adds an entry.
func (t *Transcript) Append(m Message) {
	t.mutate(func() { t.messages = append(t.messages, m) })
}

func (t *Transcript) begin() {
	t.mutate(func() { t.pending++ })
}

// settle appends the outcome of a call and drops its loading slot together,
// so observers never see the reply without the matching loading change.
func (t *Transcript) settle(m Message) {
	t.mutate(func() {
		t.messages = append(t.messages, m)
		if t.pending > 0 {
			t.pending--
		}
	})
}

func (t *Transcript) mutate(fn func()) {
	t.mu.Lock()
	fn()
	notify := t.onChange
	snapshot := append([]Message(nil), t.messages...)
	loading := t.pending > 0
	t.mu.Unlock()

	if notify != nil {
		notify(snapshot, loading)
	}
}
