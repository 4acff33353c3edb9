package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Field keys shared by every component.
const (
	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"

	FieldTenant    = "tenant_id"
	FieldJob       = "job_id"
	FieldKind      = "kind"
	FieldCandidate = "candidate_id"
)

// Document identifies the stored document a log entry is about.
type Document struct {
	TenantID    string
	JobID       string
	Kind        string
	CandidateID string
}

// Fields returns the non-empty document identifiers as zap fields.
func (d Document) Fields() []zap.Field {
	return compact(
		FieldTenant, d.TenantID,
		FieldJob, d.JobID,
		FieldKind, d.Kind,
		FieldCandidate, d.CandidateID,
	)
}

// ModelFields describes the provider and model serving a call.
func ModelFields(provider, model string) []zap.Field {
	return compact(FieldProvider, provider, FieldModel, model)
}

// With attaches fields to log. A nil log becomes a no-op logger.
func With(log *zap.Logger, fields ...zap.Field) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}

func WithModel(log *zap.Logger, provider, model string) *zap.Logger {
	return With(log, ModelFields(provider, model)...)
}

func WithDocument(log *zap.Logger, doc Document) *zap.Logger {
	return With(log, doc.Fields()...)
}

// compact turns key/value pairs into string fields, trimming both and
// skipping pairs with an empty side.
func compact(pairs ...string) []zap.Field {
	fields := make([]zap.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key := strings.TrimSpace(pairs[i])
		value := strings.TrimSpace(pairs[i+1])
		if key == "" || value == "" {
			continue
		}
		fields = append(fields, zap.String(key, value))
	}
	return fields
}
