package users

import (
	"context"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/apperrors"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/audit"
	"github.com/LevittC17/fambanasi-docs-engine-api/internal/models"
)

// AuditRecorder appends audit events.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

// Service maps identity-provider claims to application users and manages
// roles.
type Service struct {
	repo     Repository
	recorder AuditRecorder
}

func NewService(repo Repository, recorder AuditRecorder) *Service {
	return &Service{repo: repo, recorder: recorder}
}

// ResolveActor turns verified token claims into the application user,
// provisioning a viewer account on first sight. A role claim carried by the
// token is only honored at creation; the stored role wins afterwards.
func (s *Service) ResolveActor(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, apperrors.Validation("token is missing the sub claim")
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	roleClaim, _ := claims["role"].(string)

	u := &models.User{
		Sub:   sub,
		Email: email,
		Name:  name,
		Role:  models.ParseRole(roleClaim),
	}
	stored, err := s.repo.UpsertBySub(ctx, u)
	if err != nil {
		return nil, apperrors.Internal("failed to resolve user", err)
	}
	return stored, nil
}

// ChangeRole sets a user's role. Admin only.
func (s *Service) ChangeRole(ctx context.Context, sub string, role models.Role, actor *models.User) (*models.User, error) {
	if !actor.Role.AtLeast(models.RoleAdmin) {
		return nil, apperrors.PermissionDenied("admin role required to change roles")
	}
	if models.ParseRole(string(role)) != role {
		return nil, apperrors.Validation("unknown role %q", role)
	}

	before, err := s.repo.GetBySub(ctx, sub)
	if err != nil {
		return nil, apperrors.Internal("failed to load user", err)
	}
	if before == nil {
		return nil, apperrors.NotFound("user", sub)
	}

	updated, err := s.repo.SetRole(ctx, sub, role)
	if err != nil {
		return nil, apperrors.Internal("failed to change role", err)
	}
	if updated == nil {
		return nil, apperrors.NotFound("user", sub)
	}

	s.recorder.Record(ctx, audit.Entry{
		Action:       audit.ActionUserRoleChange,
		ActorID:      actor.ID,
		ResourceType: "user",
		ResourceID:   updated.ID,
		Description:  "changed role for " + updated.Email,
		OldValue:     map[string]any{"role": string(before.Role)},
		NewValue:     map[string]any{"role": string(role)},
		Success:      true,
	})
	return updated, nil
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	u, err := s.repo.GetBySub(ctx, sub)
	if err != nil {
		return nil, apperrors.Internal("failed to load user", err)
	}
	if u == nil {
		return nil, apperrors.NotFound("user", sub)
	}
	return u, nil
}
