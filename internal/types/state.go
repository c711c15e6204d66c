package types

// AuthorizationState is derived at read time. Only the active flag is
// persisted; exhaustion and expiry are computed from amounts and the clock.
type AuthorizationState string

const (
	AuthorizationStateActive    AuthorizationState = "ACTIVE"
	AuthorizationStateExhausted AuthorizationState = "EXHAUSTED"
	AuthorizationStateExpired   AuthorizationState = "EXPIRED"
	AuthorizationStateRevoked   AuthorizationState = "REVOKED"
)

func (s AuthorizationState) String() string {
	return string(s)
}

// Spendable reports whether a spend of at least one unit could succeed.
func (s AuthorizationState) Spendable() bool {
	return s == AuthorizationStateActive
}
