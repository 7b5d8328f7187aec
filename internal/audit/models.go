package audit

import "time"

// Action is the closed set of auditable actions.
type Action string

const (
	ActionDraftCreate  Action = "draft_create"
	ActionDraftUpdate  Action = "draft_update"
	ActionDraftDelete  Action = "draft_delete"
	ActionDraftSubmit  Action = "draft_submit"
	ActionDraftApprove Action = "draft_approve"
	ActionDraftReject  Action = "draft_reject"

	ActionDocumentCreate  Action = "document_create"
	ActionDocumentUpdate  Action = "document_update"
	ActionDocumentDelete  Action = "document_delete"
	ActionDocumentMove    Action = "document_move"
	ActionDocumentPublish Action = "document_publish"

	ActionMediaUpload Action = "media_upload"
	ActionMediaDelete Action = "media_delete"

	ActionUserRoleChange  Action = "user_role_change"
	ActionWebhookReceived Action = "webhook_received"
	ActionSystemError     Action = "system_error"
)

// Record is one immutable audit trail entry. Records are never updated or
// deleted after insertion.
type Record struct {
	ID           string         `bson:"_id" json:"id"`
	CreatedAt    time.Time      `bson:"createdAt" json:"createdAt"`
	ActorID      string         `bson:"actorId,omitempty" json:"actorId,omitempty"` // empty for system actions
	Action       Action         `bson:"action" json:"action"`
	ResourceType string         `bson:"resourceType,omitempty" json:"resourceType,omitempty"`
	ResourceID   string         `bson:"resourceId,omitempty" json:"resourceId,omitempty"`
	Description  string         `bson:"description" json:"description"`
	Metadata     map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
	OldValue     map[string]any `bson:"oldValue,omitempty" json:"oldValue,omitempty"`
	NewValue     map[string]any `bson:"newValue,omitempty" json:"newValue,omitempty"`
	Success      bool           `bson:"success" json:"success"`
	ErrorMessage string         `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	IPAddress    string         `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	UserAgent    string         `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
}

// Filter narrows List queries.
type Filter struct {
	ActorID      string
	Action       Action
	ResourceType string
	ResourceID   string
	Since        *time.Time
	Until        *time.Time
	Limit        int
	Offset       int
}
