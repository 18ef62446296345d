// internal/ingest/pipeline.go
package ingest

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"eventgate/internal/logger"
	"eventgate/internal/schema"
	"eventgate/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

// Pipeline orchestrates one request batch: authorize, then validate and
// insert each event independently. It holds only read-only schema state and
// the pooled database handle, so one instance serves all requests.
type Pipeline struct {
	Schema  *schema.Schema
	DB      *sql.DB
	Dialect storage.Dialect
}

// NewPipeline creates the ingestion pipeline shared by all requests.
func NewPipeline(s *schema.Schema, db *sql.DB, d storage.Dialect) *Pipeline {
	return &Pipeline{Schema: s, DB: db, Dialect: d}
}

// Request is one decoded ingestion batch as handed over by the HTTP layer.
type Request struct {
	AppID     string
	SecretKey string
	Events    []json.RawMessage
	Headers   http.Header
}

// Outcome is the per-event result. Err is nil for a stored event; otherwise
// it is one of the validation error types or a *storage.StorageError.
type Outcome struct {
	Err error
}

// Result is what the HTTP layer needs to answer an authorized batch: the
// app's CORS origin and one outcome per event, in request order.
type Result struct {
	Origin   string
	Outcomes []Outcome
}

// Ingest processes one batch. A non-nil error means the whole batch was
// denied before any event was touched (unknown app or table, bad secret,
// missing table selector); validation and storage failures never surface
// here, they land in the per-event outcome list instead.
func (p *Pipeline) Ingest(ctx context.Context, req *Request) (*Result, error) {
	app, err := AuthorizeApp(p.Schema, req.AppID, req.SecretKey)
	if err != nil {
		return nil, err
	}

	// Decode every event and authorize every target table up front, so a
	// denial is always for the whole batch with nothing inserted.
	events := make([]map[string]any, len(req.Events))
	tables := make([]*schema.Table, len(req.Events))
	for i, raw := range req.Events {
		event, err := decodeEvent(raw)
		if err != nil {
			return nil, err
		}
		selector, ok := event[TableSelectorField].(string)
		if !ok {
			return nil, fmt.Errorf("%w (event %d)", ErrMissingTableSelector, i)
		}
		table, err := AuthorizeTable(p.Schema, app, selector)
		if err != nil {
			return nil, err
		}
		events[i] = event
		tables[i] = table
	}

	res := &Result{
		Origin:   app.AccessControlAllowOrigin,
		Outcomes: make([]Outcome, len(events)),
	}

	for i, event := range events {
		row, err := BuildRow(tables[i], event, req.Headers)
		if err != nil {
			customLog.Printf("Ingest: app %q event %d rejected: %v", app.AppID, i, err)
			res.Outcomes[i] = Outcome{Err: err}
			continue
		}
		if err := storage.InsertRow(ctx, p.DB, p.Dialect, row.Table.Name, row.Columns, row.Values); err != nil {
			res.Outcomes[i] = Outcome{Err: err}
			continue
		}
		res.Outcomes[i] = Outcome{}
	}

	return res, nil
}

// decodeEvent unmarshals one event object with UseNumber so 64-bit integers
// survive the JSON boundary undamaged.
func decodeEvent(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var event map[string]any
	if err := dec.Decode(&event); err != nil {
		return nil, fmt.Errorf("%w: event is not a JSON object", ErrMissingTableSelector)
	}
	return event, nil
}
