package rewards

import "errors"

var (
	// ErrMissingUserID indicates a required user id was absent.
	ErrMissingUserID = errors.New("user id is required")
	// ErrInvalidAmount indicates a negative point delta; the account is not touched.
	ErrInvalidAmount = errors.New("point amount must not be negative")
	// ErrInsufficientPoints indicates a claim exceeding the spendable balance.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrAccountNotFound indicates an operation against a nonexistent account.
	ErrAccountNotFound = errors.New("reward account not found")
	// ErrConflict indicates the optimistic version check failed; retry from a fresh read.
	ErrConflict = errors.New("reward account was modified concurrently")
	// ErrCodeCollision indicates a generated claim code was already issued.
	ErrCodeCollision = errors.New("claim code already issued")
	// ErrInvalidTimeframe indicates an unsupported leaderboard timeframe.
	ErrInvalidTimeframe = errors.New("invalid leaderboard timeframe")
)
