// api/handlers/event_handler.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventgate/api/models"
	"eventgate/internal/ingest"
	"eventgate/internal/logger"
	"eventgate/internal/schema"
	"eventgate/internal/storage"
)

// MaxEventBodyBytes caps the JSON request body. Batches bigger than this are
// a client bug, not a bigger batch.
const MaxEventBodyBytes = 32 * 1024

var (
	customLog = logger.NewLogger()
)

// EventHandler holds dependencies for the ingestion endpoint.
type EventHandler struct {
	Schema   *schema.Schema
	Pipeline *ingest.Pipeline
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(s *schema.Schema, pipe *ingest.Pipeline) *EventHandler {
	return &EventHandler{
		Schema:   s,
		Pipeline: pipe,
	}
}

// PostEvents handles POST /apps/:app_id/events.
func (h *EventHandler) PostEvents(c *gin.Context) {
	appID := c.Param("app_id")

	// The CORS origin is attached whenever the app is known, including on
	// denials, so browser clients can read the error body.
	if app, ok := h.Schema.Apps[appID]; ok {
		c.Header("Access-Control-Allow-Origin", app.AccessControlAllowOrigin)
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxEventBodyBytes)

	var req models.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON request body: " + err.Error()})
		return
	}

	res, err := h.Pipeline.Ingest(c.Request.Context(), &ingest.Request{
		AppID:     appID,
		SecretKey: req.SecretKey,
		Events:    req.Events,
		Headers:   c.Request.Header,
	})
	if err != nil {
		// Batch-level denial; the error handler middleware maps it.
		_ = c.Error(err)
		c.Abort()
		return
	}

	resp := models.IngestResponse{Results: make([]models.EventResult, len(res.Outcomes))}
	for i, outcome := range res.Outcomes {
		resp.Results[i] = eventResult(outcome)
	}
	c.JSON(http.StatusOK, resp)
}

// eventResult maps one per-event outcome onto the wire representation.
func eventResult(outcome ingest.Outcome) models.EventResult {
	err := outcome.Err
	if err == nil {
		return models.EventResult{Status: "ok"}
	}

	res := models.EventResult{Status: "error", Error: err.Error()}

	var missingErr *ingest.MissingRequiredFieldError
	var typeErr *ingest.TypeMismatchError
	var unknownErr *ingest.UnknownFieldError
	var storageErr *storage.StorageError
	switch {
	case errors.As(err, &missingErr):
		res.Kind = "missing_required_field"
	case errors.As(err, &typeErr):
		res.Kind = "type_mismatch"
	case errors.As(err, &unknownErr):
		res.Kind = "unknown_field"
	case errors.As(err, &storageErr):
		res.Kind = "storage_error"
		res.Retryable = storageErr.Transient
		// Backend error details stay in the logs.
		res.Error = "failed to store event"
	default:
		customLog.Warnf("Handler: unclassified event outcome: %T: %v", err, err)
		res.Kind = "storage_error"
		res.Error = "failed to store event"
	}
	return res
}
