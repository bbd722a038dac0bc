package domain

type Message struct {
	Key   []byte
	Value []byte
}

// EventPublisher is the broker port. Publishing is best-effort: failures are
// logged by callers and never affect the primary transaction outcome.
type EventPublisher interface {
	Publish(topic string, msgs ...Message) error
}
