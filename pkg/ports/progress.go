package ports

// ProgressReporter receives relay progress in frames.
type ProgressReporter interface {
	// Start begins reporting. total <= 0 means the total is unknown.
	Start(total int64)

	// Advance records n more frames.
	Advance(n int)

	// Finish ends reporting.
	Finish()
}
