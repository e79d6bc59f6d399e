package neat

import "errors"

// Sentinel errors returned by the core. Configuration errors and
// out-of-range ids are programming errors: they are returned rather
// than panicking so a caller can log and abort instead of crashing the
// whole process, but they are never meant to be retried.
var (
	// ErrInvalidShape is returned when a Network dimension (input
	// width, hidden width, or output width) is zero.
	ErrInvalidShape = errors.New("neat: invalid network shape")

	// ErrShapeMismatch is returned when Run is called with an input
	// slice of the wrong arity, or SetWeights with a slice of the
	// wrong length.
	ErrShapeMismatch = errors.New("neat: shape mismatch")

	// ErrInvalidConfig is returned by NewPopulation when a required
	// Config field is not positive.
	ErrInvalidConfig = errors.New("neat: invalid configuration")

	// ErrGenomeNotFound is returned by Population accessors given an
	// out-of-range genome id.
	ErrGenomeNotFound = errors.New("neat: genome id out of range")

	// ErrSpeciesNotFound is returned by Population accessors given an
	// out-of-range species index.
	ErrSpeciesNotFound = errors.New("neat: species index out of range")
)
