package media

import (
	"bytes"
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/apperrors"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/audit"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/docpath"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/models"
)

// Prefix under which all media objects are stored.
const Prefix = "images/"

// URLTTL is how long presigned download links stay valid.
const URLTTL = 24 * time.Hour

var allowedContentTypes = map[string]bool{
	"image/png":     true,
	"image/jpeg":    true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

// AuditRecorder appends audit events.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

// Object is an uploaded media file.
type Object struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	URL         string `json:"url,omitempty"`
}

// Service stores document media in object storage.
type Service struct {
	store    ObjectStore
	recorder AuditRecorder
	maxSize  int64
}

func NewService(store ObjectStore, recorder AuditRecorder, maxSize int64) *Service {
	return &Service{store: store, recorder: recorder, maxSize: maxSize}
}

// Upload stores data under a sanitized, collision-free key and returns a
// presigned download URL.
func (s *Service) Upload(ctx context.Context, filename string, data []byte, contentType string, actor *models.User) (*Object, error) {
	if !actor.Role.AtLeast(models.RoleEditor) {
		return nil, apperrors.PermissionDenied("editor role required to upload media")
	}
	if len(data) == 0 {
		return nil, apperrors.Validation("file is empty")
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, apperrors.Validation("file exceeds maximum size of %d bytes", s.maxSize)
	}
	if !allowedContentTypes[contentType] {
		return nil, apperrors.Validation("unsupported content type %q", contentType)
	}

	ext := path.Ext(filename)
	base := docpath.SanitizeFilename(strings.TrimSuffix(path.Base(filename), ext))
	if base == "" {
		base = "upload"
	}
	key := Prefix + base + "-" + uuid.NewString()[:8] + strings.ToLower(ext)

	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, apperrors.Storage("failed to store media object", err)
	}

	url, err := s.store.PresignedURL(ctx, key, URLTTL)
	if err != nil {
		url = ""
	}

	s.recorder.Record(ctx, audit.Entry{
		Action:       audit.ActionMediaUpload,
		ActorID:      actor.ID,
		ResourceType: "media",
		ResourceID:   key,
		Description:  "uploaded media " + key,
		Metadata:     map[string]any{"size": len(data), "contentType": contentType},
		Success:      true,
	})
	return &Object{Key: key, Size: int64(len(data)), ContentType: contentType, URL: url}, nil
}

func (s *Service) Delete(ctx context.Context, key string, actor *models.User) error {
	if !actor.Role.AtLeast(models.RoleEditor) {
		return apperrors.PermissionDenied("editor role required to delete media")
	}
	if !strings.HasPrefix(key, Prefix) || strings.Contains(key, "..") {
		return apperrors.Validation("invalid media key")
	}

	if err := s.store.Remove(ctx, key); err != nil {
		return apperrors.Storage("failed to delete media object", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		Action:       audit.ActionMediaDelete,
		ActorID:      actor.ID,
		ResourceType: "media",
		ResourceID:   key,
		Description:  "deleted media " + key,
		Success:      true,
	})
	return nil
}

func (s *Service) List(ctx context.Context) ([]ObjectInfo, error) {
	objects, err := s.store.List(ctx, Prefix)
	if err != nil {
		return nil, apperrors.Storage("failed to list media objects", err)
	}
	return objects, nil
}
