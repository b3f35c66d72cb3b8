package pattern

import "errors"

// Domain errors. Each aborts the pattern being processed; the batch
// driver logs and moves on. These are data-quality failures, never
// transient faults, so nothing retries them.
var (
	// ErrNoFragments means a pattern directory holds no fragment graphs.
	ErrNoFragments = errors.New("no fragment graphs found")

	// ErrFragmentsNotIsomorphic means the mined fragments for a pattern do
	// not structurally agree; the pattern is unusable.
	ErrFragmentsNotIsomorphic = errors.New("fragments are not isomorphic")

	// ErrNoIsomorphismFound means the representative fragment and the
	// canonical graph stopped aligning during correspondence building.
	ErrNoIsomorphismFound = errors.New("no isomorphism found")

	// ErrAmbiguousCorrespondence means the graphs align structurally but no
	// enumerated mapping also agrees on per-vertex original labels.
	ErrAmbiguousCorrespondence = errors.New("ambiguous correspondence")
)
