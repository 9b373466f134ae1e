package transport

// The wire protocol is JSON lines. The server sends one Message per
// line; the client replies to prompts with a single raw line of text.

// MessageKind distinguishes the server-to-client message types
type MessageKind string

const (
	// KindInfo is a fire-and-forget informational message
	KindInfo MessageKind = "info"

	// KindPrompt asks the client for one line of input
	KindPrompt MessageKind = "prompt"

	// KindError is an error-prefixed informational message
	KindError MessageKind = "error"

	// KindClose tells the client the connection will close after this
	// message is delivered
	KindClose MessageKind = "close"
)

// Message is one server-to-client protocol frame
type Message struct {
	Kind MessageKind `json:"kind"`
	Text string      `json:"text"`
}
