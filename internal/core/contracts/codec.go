package contracts

// ContentCodec encrypts message content at rest. The realtime core treats
// both sides as opaque strings; a Decode failure must degrade to a visible
// placeholder, never crash the session.
type ContentCodec interface {
	Encode(plaintext string) (string, error)
	Decode(blob string) (string, error)
}
