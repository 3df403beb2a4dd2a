package mailer

// Message is a single rendered notification ready for delivery
type Message struct {
	To      string
	Subject string
	Body    string
}

// Transport defines the interface for delivering notification messages
type Transport interface {
	// Send delivers a message and returns an error if delivery failed
	Send(msg Message) error

	// GetName returns the name of the transport implementation
	GetName() string
}
