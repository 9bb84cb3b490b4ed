package mandays

import "errors"

var (
	// ErrInvalidCombination means the standard/category pair has no positive base value.
	ErrInvalidCombination = errors.New("invalid standard/category combination")
	// ErrInvalidRiskLevel means the risk level has no configured multiplier.
	ErrInvalidRiskLevel = errors.New("invalid risk level")
	// ErrInvalidRange means no employee band contains the employee count.
	ErrInvalidRange = errors.New("no employee range matches")
	// ErrOutOfRange means the configured values produce a total that is not a usable number of days.
	ErrOutOfRange = errors.New("calculated man-days out of range")
	// ErrInvalidConfiguration is matched by every *ConfigError.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
