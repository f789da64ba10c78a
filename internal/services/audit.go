package services

import (
	"log"
	"runtime/debug"

	"github.com/campuslink/studentportal-backend/internal/models"
	"github.com/campuslink/studentportal-backend/internal/storage"
)

// AuditSink records unexpected errors with their stack trace for operational
// visibility. Recording is fire-and-forget: a failure to record is logged
// locally and never propagated to the calling request.
type AuditSink struct {
	store storage.Store
}

// NewAuditSink creates an audit sink over the store.
func NewAuditSink(store storage.Store) *AuditSink {
	return &AuditSink{store: store}
}

// Record captures the error and the current stack trace.
func (a *AuditSink) Record(err error) {
	if err == nil {
		return
	}

	entry := &models.ErrorLog{
		Error: err.Error(),
		Trace: string(debug.Stack()),
	}
	if dbErr := a.store.CreateErrorLog(entry); dbErr != nil {
		log.Printf("audit: failed to record error: %v (original: %v)", dbErr, err)
	}
}
