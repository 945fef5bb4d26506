// Package snapshot defines the immutable search-state model emitted by the
// pipeline. A Snapshot describes one point-in-time view of the search:
// whether a query is in flight, whether the last attempt failed, and the
// result of the last completed search.
package snapshot

// Kind distinguishes the three outcomes a completed search can have.
// "No term entered" and "empty result set" are separate variants so that
// the UI never has to guess which one an empty hit list means.
type Kind int

const (
	// KindNoTerm means no search has been performed (empty query).
	KindNoTerm Kind = iota
	// KindEmpty means the search completed but matched nothing.
	KindEmpty
	// KindPopulated means the search completed with at least one hit.
	KindPopulated
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNoTerm:
		return "no_term"
	case KindEmpty:
		return "empty"
	case KindPopulated:
		return "populated"
	default:
		return "unknown"
	}
}

// Hit is a single search hit.
type Hit struct {
	ID      int64   `json:"id,omitempty"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet,omitempty"`
	Source  string  `json:"source,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// Result is the outcome of a completed search. Construct one with NoTerm
// or FromHits; the zero value is the no-term sentinel.
type Result struct {
	Kind Kind
	Hits []Hit
}

// NoTerm returns the "no term entered" sentinel result.
func NoTerm() Result {
	return Result{Kind: KindNoTerm}
}

// FromHits builds a Result from a provider's hit list, tagging it as
// empty or populated by the list length.
func FromHits(hits []Hit) Result {
	if len(hits) == 0 {
		return Result{Kind: KindEmpty}
	}
	return Result{Kind: KindPopulated, Hits: hits}
}

// Snapshot is one emission of the pipeline. It is a plain value record:
// never mutated after construction, transitions are modeled by producing
// a new Snapshot.
//
// Loading and HasError are never both true; the constructors below are the
// only way snapshots are built, and none of them sets both.
type Snapshot struct {
	// Result is the last completed search's outcome. Nil while a search
	// is loading or after a failure.
	Result *Result

	// Loading is true while a search is in flight.
	Loading bool

	// HasError is true if the most recent search attempt failed.
	HasError bool
}

// Initial returns the seed snapshot emitted before any input arrives:
// the no-term result, not loading, no error.
func Initial() Snapshot {
	r := NoTerm()
	return Snapshot{Result: &r}
}

// Loading returns the snapshot emitted when a search starts.
func Loading() Snapshot {
	return Snapshot{Loading: true}
}

// WithResult returns the snapshot emitted when a search completes.
func WithResult(r Result) Snapshot {
	return Snapshot{Result: &r}
}

// Failed returns the snapshot emitted when a search attempt fails.
func Failed() Snapshot {
	return Snapshot{HasError: true}
}
