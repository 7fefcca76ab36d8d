package sim

import "errors"

// Failure taxonomy for the kernel and the facility archetypes. Every
// failure is a hard stop: callers wrap with fmt.Errorf("...: %w", err)
// and surface upward. Nothing is silently clamped or partially committed.
var (
	// ErrConfig marks invalid agent or scenario configuration.
	ErrConfig = errors.New("invalid configuration")

	// ErrCapacity marks a push that would exceed a buffer's capacity.
	ErrCapacity = errors.New("capacity exceeded")

	// ErrInsufficient marks a pop or extract of more material than is held.
	ErrInsufficient = errors.New("insufficient quantity")

	// ErrConstraint marks a matched trade whose resource cost exceeds the
	// budget available at execution time. Bid sizing is supposed to make
	// this unreachable; hitting it means the sizing and execution paths
	// disagree.
	ErrConstraint = errors.New("constraint violation")

	// ErrRecipeMismatch marks a delivered material whose composition does
	// not match the recipe it was requested at.
	ErrRecipeMismatch = errors.New("composition mismatch")

	// ErrDegenerateAssay marks an assay combination with no physical
	// separation (feed equal to tails or product, or a fraction outside
	// the open unit interval).
	ErrDegenerateAssay = errors.New("degenerate assay")
)
