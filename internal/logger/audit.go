package logger

import (
	"context"
	"time"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	// Run lifecycle
	AuditActionRunStart    AuditAction = "RUN_START"
	AuditActionRunSkipped  AuditAction = "RUN_SKIPPED"
	AuditActionRunPreview  AuditAction = "RUN_PREVIEW"
	AuditActionRunComplete AuditAction = "RUN_COMPLETE"
	AuditActionRunFailed   AuditAction = "RUN_FAILED"

	// Board mutations
	AuditActionListCreate      AuditAction = "LIST_CREATE"
	AuditActionCardCreate      AuditAction = "CARD_CREATE"
	AuditActionChecklistCreate AuditAction = "CHECKLIST_CREATE"
	AuditActionCheckItemCreate AuditAction = "CHECKITEM_CREATE"

	// API operations
	AuditActionAPIRequest AuditAction = "API_REQUEST"
	AuditActionAPIError   AuditAction = "API_ERROR"
)

// AuditEvent represents an audit log entry
type AuditEvent struct {
	Action     AuditAction
	Resource   string
	ResourceID string
	Details    map[string]interface{}
	ClientIP   string
	RequestID  string
	RunID      string
	Success    bool
	Error      string
	Duration   int64 // Duration in milliseconds
	Method     string
	Path       string
	StatusCode int
}

// Audit logs an audit event on the context logger
func Audit(ctx context.Context, event AuditEvent) {
	l := Get(ctx).With().Str("log_type", "audit").Logger()
	logEvent := l.Info()
	if !event.Success {
		logEvent = l.Warn()
	}

	logEvent.
		Str("action", string(event.Action)).
		Str("resource", event.Resource).
		Bool("success", event.Success).
		Time("timestamp", time.Now().UTC())

	if event.ResourceID != "" {
		logEvent.Str("resource_id", event.ResourceID)
	}

	// run_id e request_id do contexto já estão no logger
	if event.RunID != "" && event.RunID != GetRunID(ctx) {
		logEvent.Str("run_id", event.RunID)
	}

	if event.RequestID != "" && event.RequestID != GetRequestID(ctx) {
		logEvent.Str("request_id", event.RequestID)
	}

	if event.ClientIP != "" {
		logEvent.Str("client_ip", event.ClientIP)
	}

	if event.Error != "" {
		logEvent.Str("error", event.Error)
	}

	if event.Duration > 0 {
		logEvent.Int64("duration_ms", event.Duration)
	}

	if event.Method != "" {
		logEvent.Str("method", event.Method)
	}

	if event.Path != "" {
		logEvent.Str("path", event.Path)
	}

	if event.StatusCode > 0 {
		logEvent.Int("status_code", event.StatusCode)
	}

	if len(event.Details) > 0 {
		logEvent.Interface("details", event.Details)
	}

	logEvent.Msg("Audit event")
}

// AuditMutation records one board object created during a run
func AuditMutation(ctx context.Context, action AuditAction, resource, resourceID string, details map[string]interface{}) {
	Audit(ctx, AuditEvent{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Success:    true,
		Details:    details,
	})
}

// AuditRequest logs an API request audit event
func AuditRequest(ctx context.Context, method, path string, statusCode int, duration int64, clientIP string) {
	success := statusCode < 400
	action := AuditActionAPIRequest
	if !success {
		action = AuditActionAPIError
	}

	Audit(ctx, AuditEvent{
		Action:     action,
		Resource:   "api",
		ResourceID: path,
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
		Duration:   duration,
		ClientIP:   clientIP,
		Success:    success,
	})
}
