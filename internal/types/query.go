package types

import "fmt"

// ResourceKind is the platform search resource a query targets.
type ResourceKind string

const (
	ResourceRepositories ResourceKind = "repositories"
	ResourceCode         ResourceKind = "code"
)

// RecordKind is the kind of artifact a ResultRecord represents.
type RecordKind string

const (
	RecordRepository RecordKind = "repository"
	RecordCode        RecordKind = "code"
	RecordGist        RecordKind = "gist"
)

// SearchQuery is derived from (term, slice, kind). It is stateless; two
// queries built from equal inputs are equal in effect.
type SearchQuery struct {
	Term  string
	Slice TimeSlice
	Kind  ResourceKind
}

// NewSearchQuery validates the term and constructs a query.
func NewSearchQuery(term string, slice TimeSlice, kind ResourceKind) (SearchQuery, error) {
	if term == "" {
		return SearchQuery{}, ErrEmptyTerm
	}
	return SearchQuery{Term: term, Slice: slice, Kind: kind}, nil
}

// QueryString renders the bit-exact query grammar:
// `"<term>" created:<start>..<end>` or `"<term>" created:<day>` for single days.
func (q SearchQuery) QueryString() string {
	if q.Slice.StartString() == q.Slice.EndString() {
		return fmt.Sprintf("%q created:%s", q.Term, q.Slice.StartString())
	}
	return fmt.Sprintf("%q created:%s..%s", q.Term, q.Slice.StartString(), q.Slice.EndString())
}

// Endpoint returns the platform API path for this query's resource kind.
func (q SearchQuery) Endpoint() string {
	switch q.Kind {
	case ResourceCode:
		return "/search/code"
	default:
		return "/search/repositories"
	}
}
