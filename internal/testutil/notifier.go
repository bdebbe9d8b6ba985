package testutil

import "sync"

// FakeNotifier records alerts and answers confirmations with Answer.
type FakeNotifier struct {
	mu       sync.Mutex
	Answer   bool
	alerts   []string
	confirms []string
}

// NewFakeNotifier creates a notifier that answers every confirmation with answer.
func NewFakeNotifier(answer bool) *FakeNotifier {
	return &FakeNotifier{Answer: answer}
}

// Alert records message.
func (n *FakeNotifier) Alert(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, message)
}

// Confirm records prompt and returns Answer.
func (n *FakeNotifier) Confirm(prompt string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirms = append(n.confirms, prompt)
	return n.Answer
}

// Alerts returns every recorded alert.
func (n *FakeNotifier) Alerts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.alerts...)
}

// Confirms returns every recorded confirmation prompt.
func (n *FakeNotifier) Confirms() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.confirms...)
}
