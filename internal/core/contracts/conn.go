package contracts

import "context"

// Conn is the transport handle handed to the session controller by the
// routing layer. The websocket adapter implements it; tests use channel
// backed fakes.
type Conn interface {
	// ReadMessage blocks until the next inbound frame or transport error.
	ReadMessage() ([]byte, error)
	Send(ctx context.Context, data []byte) error
	// ClosePolicyViolation closes the transport with the policy-violation
	// close code (1008) before the session ever becomes active.
	ClosePolicyViolation(reason string)
	Close()
}
