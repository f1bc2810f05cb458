package dashboard

import "fmt"

const (
	// NoResultsMessage is shown when a cycle yields zero articles.
	NoResultsMessage = "No articles found. Please try again later."
	// GenericErrorMessage is shown for any failure outside the fetch step.
	GenericErrorMessage = "An error occurred while loading the application."
)

// FetchError is a failed search call. It never aborts a cycle: the cycle
// continues with zero articles and shows UserMessage inline.
type FetchError struct {
	Query string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %q: %v", e.Query, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UserMessage is the inline text shown for the failure.
func (e *FetchError) UserMessage() string {
	return fmt.Sprintf("Failed to fetch articles: %v", e.Err)
}

// RenderError is an unexpected failure anywhere else in a cycle. Callers show
// GenericErrorMessage and log the cause.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
