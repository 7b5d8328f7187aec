package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/logger"
	"github.com/LevittC17/fambanasi-docs-engine-api/pkg/metrics"
)

// Entry is the caller-facing shape of an audit event.
type Entry struct {
	Action       Action
	ActorID      string
	ResourceType string
	ResourceID   string
	Description  string
	Metadata     map[string]any
	OldValue     map[string]any
	NewValue     map[string]any
	Success      bool
	ErrorMessage string
	IPAddress    string
	UserAgent    string
}

// Recorder appends records to the audit trail. Record never fails from the
// caller's perspective: audit logging must not abort the operation it
// describes, so persistence errors are logged and swallowed.
type Recorder struct {
	repo Repository
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) Record(ctx context.Context, e Entry) {
	rec := &Record{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		ActorID:      e.ActorID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Description:  e.Description,
		Metadata:     e.Metadata,
		OldValue:     e.OldValue,
		NewValue:     e.NewValue,
		Success:      e.Success,
		ErrorMessage: e.ErrorMessage,
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
	}

	if err := r.repo.Insert(ctx, rec); err != nil {
		metrics.AuditWriteFailures.Inc()
		logger.Errorf("failed to write audit record (%s on %s/%s): %v", e.Action, e.ResourceType, e.ResourceID, err)
		return
	}

	logger.Debugf("audit: %s by %s - %s", e.Action, actorOrSystem(e.ActorID), e.Description)
}

// List exposes the trail for the audit API endpoint.
func (r *Recorder) List(ctx context.Context, f Filter) ([]*Record, int64, error) {
	return r.repo.List(ctx, f)
}

func actorOrSystem(actorID string) string {
	if actorID == "" {
		return "system"
	}
	return actorID
}
