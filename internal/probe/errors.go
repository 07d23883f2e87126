package probe

import "errors"

var (
	// ErrInvalidPacket is returned by Parse for anything that is not a usable
	// response. It is never fatal to a run.
	ErrInvalidPacket = errors.New("invalid packet")

	ErrPacketTooLong = errors.New("packet exceeds maximum IPv4 length")
	ErrNotIPv4       = errors.New("address is not IPv4")

	ErrDuplicateID              = errors.New("probe identifier already in use")
	ErrIdentifierSpaceExhausted = errors.New("probe identifier space exhausted")
	ErrWindowClosed             = errors.New("admission window closed")

	ErrNotImplemented   = errors.New("not implemented")
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	ErrInvalidConfig    = errors.New("invalid probe configuration")

	ErrLengthMismatch     = errors.New("constructed packet length mismatch")
	ErrClockWentBackwards = errors.New("clock went backwards")
)
