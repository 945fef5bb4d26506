package daemon

import "github.com/runger/typeahead/internal/snapshot"

// WireVersion is the query protocol version.
const WireVersion = 1

// QueryRequest is one search request, serialized as a single NDJSON line.
type QueryRequest struct {
	// Version is the protocol version (currently 1).
	Version int `json:"v"`

	// RequestID is echoed back in the response so clients can match
	// responses to requests.
	RequestID uint64 `json:"request_id,omitempty"`

	// Query is the search term.
	Query string `json:"query"`

	// Limit is the maximum number of hits to return (0 = server default).
	Limit int `json:"limit,omitempty"`
}

// QueryResponse is the answer to one QueryRequest, serialized as a single
// NDJSON line.
type QueryResponse struct {
	// RequestID echoes QueryRequest.RequestID.
	RequestID uint64 `json:"request_id,omitempty"`

	// Hits are the matching documents, best first.
	Hits []snapshot.Hit `json:"hits"`

	// Total is len(Hits); present so shell clients can branch without
	// parsing the array.
	Total int `json:"total"`

	// Err is a human-readable error message when the search failed.
	Err string `json:"error,omitempty"`
}
