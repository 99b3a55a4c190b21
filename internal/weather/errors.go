package weather

import (
	"fmt"
)

// ProviderError reports an upstream HTTP or payload failure. Status is the
// upstream HTTP status code, or 0 when the request never got a response.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("provider %s: status %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IngestionError reports a storage failure during a bronze insert.
type IngestionError struct {
	City string
	Err  error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.City, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// TransformError reports a storage failure during a silver or gold upsert.
type TransformError struct {
	Stage string
	City  string
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s transform %s: %v", e.Stage, e.City, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }
