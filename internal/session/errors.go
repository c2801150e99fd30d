package session

import "errors"

// Structural misuse errors, surfaced synchronously to the caller. None of
// them mutates run state.
var (
	// ErrNoRun means no run has been started in this session.
	ErrNoRun = errors.New("no active run")

	// ErrUnknownRun means the given run ID does not match the current run.
	ErrUnknownRun = errors.New("unknown run")

	// ErrUnknownCluster means the cluster ID does not exist in the
	// current run.
	ErrUnknownCluster = errors.New("unknown cluster")

	// ErrUnknownRecord means the path is not a member of the given
	// cluster.
	ErrUnknownRecord = errors.New("unknown record")
)
