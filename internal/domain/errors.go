package domain

import "fmt"

// FetchErrorKind classifies feed retrieval failures.
type FetchErrorKind int

const (
	// FetchUnreachable covers transport failures and non-success HTTP statuses.
	FetchUnreachable FetchErrorKind = iota + 1
	// FetchParseFailure means the document could not be parsed as a feed.
	FetchParseFailure
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchUnreachable:
		return "unreachable"
	case FetchParseFailure:
		return "parse failure"
	default:
		return "unknown"
	}
}

// FetchError is returned by feed fetchers; it never aborts a cycle.
type FetchError struct {
	Kind   FetchErrorKind
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NotifyError wraps a sink failure; the entry stays unmarked and is retried next cycle.
type NotifyError struct {
	Sink string
	Err  error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify via %s: %v", e.Sink, e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}

// StoreError wraps a dedup store failure; it aborts the running cycle.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
