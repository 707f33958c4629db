package m

import "github.com/pkg/errors"

// Misuse of the API contract. Operations returning one of these fail before
// touching the receiver; callers match them with errors.Is.
var (
	ErrShape               = errors.New("malformed matrix shape")
	ErrDimensionMismatch   = errors.New("matrix dimension mismatch")
	ErrInvalidInputLength  = errors.New("invalid inputs length")
	ErrInvalidTargetLength = errors.New("invalid targets length")
	ErrLayerCount          = errors.New("invalid layer count")
	ErrLearningRate        = errors.New("learning rate must be positive")
	ErrUnknownActivator    = errors.New("unknown activator")
	ErrSampleCount         = errors.New("inputs and targets differ in length")
	ErrInvalidCache        = errors.New("activation cache does not match network")
)
