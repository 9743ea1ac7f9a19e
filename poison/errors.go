package poison

import "errors"

var (
	// ErrInvalidConfig marks fatal configuration problems: unknown strategy,
	// malformed target classes, missing source class and out-of-range values.
	ErrInvalidConfig = errors.New("invalid poison configuration")

	// ErrInvalidDataset marks a clean dataset the engine cannot process.
	ErrInvalidDataset = errors.New("invalid dataset")
)
