package trader

import "errors"

// Cycle outcome errors. Capacity errors mark a deliberate no-op cycle, not a
// failure; callers match with errors.Is to tell retryable conditions from
// terminal ones.
var (
	ErrDailyCapReached       = errors.New("daily trade cap reached")
	ErrConcurrencyCapReached = errors.New("concurrent position cap reached")
	ErrInsufficientBalance   = errors.New("available amount below minimum trade size")
	ErrNoCandidates          = errors.New("no candidates discovered")
	ErrNoExecutable          = errors.New("no executable candidate")
	ErrBlacklisted           = errors.New("asset is blacklisted")
	ErrAlreadyHolding        = errors.New("position already open for asset")
	ErrStopped               = errors.New("trader stopped")
)

// IsCapacityError reports whether err marks a deliberate no-op cycle caused
// by a risk limit rather than a failure.
func IsCapacityError(err error) bool {
	return errors.Is(err, ErrDailyCapReached) ||
		errors.Is(err, ErrConcurrencyCapReached) ||
		errors.Is(err, ErrInsufficientBalance)
}
