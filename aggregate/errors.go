package aggregate

import "errors"

// Sentinel error kinds. Callers should use errors.Is against these, not
// string matching; wrapped detail is added with fmt.Errorf("%w: ...").
var (
	ErrNullArgument           = errors.New("aggregate: required argument is nil or empty")
	ErrDimensionArityMismatch = errors.New("aggregate: dimension value count does not match metric's declared arity")
	ErrConfigurationMismatch  = errors.New("aggregate: metric already registered with a different configuration")
	ErrCapacityExceeded       = errors.New("aggregate: series or dimension-value capacity exceeded")
	ErrInvalidState           = errors.New("aggregate: operation not valid for the current cycle state")
	ErrInternalIntegrity      = errors.New("aggregate: could not bind to host context primitive")
)
