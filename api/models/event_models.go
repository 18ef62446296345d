// api/models/event_models.go
package models

import "encoding/json"

// --- Ingestion Request Structs ---

// IngestRequest is the POST /apps/:app_id/events payload. Events stay raw
// here; the pipeline decodes them itself so numeric precision is preserved.
type IngestRequest struct {
	SecretKey string `json:"secret_key" binding:"required"`
	// An empty batch is legal, so no required tag here.
	Events []json.RawMessage `json:"events"`
}

// --- Ingestion Response Structs ---

// EventResult reports one event's outcome. Status is "ok" or "error"; on
// error, Kind is one of missing_required_field, type_mismatch, unknown_field
// or storage_error, and Retryable marks transient storage failures the
// client may resubmit.
type EventResult struct {
	Status    string `json:"status"`
	Kind      string `json:"kind,omitempty"`
	Error     string `json:"error,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// IngestResponse is returned for an authorized batch, one result per event
// in request order, so clients can see partial success.
type IngestResponse struct {
	Results []EventResult `json:"results"`
}
