package session

// Close reasons passed to Close and carried to the peer in the close
// frame. They live next to the session so every package that closes a
// session shares one definition.
const (
	ReasonMissingToken = "missing-token"
	ReasonInvalidToken = "invalid-token"
	ReasonExpiredToken = "expired-token"
	ReasonForbidden    = "forbidden"
	ReasonSlowConsumer = "slow consumer"
	ReasonInternal     = "internal error"
	ReasonDeregistered = "deregistered"
)
