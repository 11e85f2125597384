package contracts

import "github.com/google/uuid"

// TokenValidator resolves a bearer credential to a user id. Used once per
// connection while authenticating; injected so tests can swap it.
type TokenValidator interface {
	ValidateToken(token string) (uuid.UUID, error)
}
