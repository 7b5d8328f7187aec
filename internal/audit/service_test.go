package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type failingRepo struct{}

func (f *failingRepo) Insert(ctx context.Context, rec *Record) error {
	return errors.New("store down")
}

func (f *failingRepo) List(ctx context.Context, _ Filter) ([]*Record, int64, error) {
	return nil, 0, errors.New("store down")
}

func TestRecordSwallowsStoreErrors(t *testing.T) {
	r := NewRecorder(&failingRepo{})
	// must not panic or surface the failure
	r.Record(context.Background(), Entry{
		Action:      ActionDraftCreate,
		Description: "Created draft: Test",
		Success:     true,
	})
}

func TestRecordAndList(t *testing.T) {
	repo := NewMemoryRepository()
	r := NewRecorder(repo)

	r.Record(context.Background(), Entry{
		Action:       ActionDraftCreate,
		ActorID:      "user-1",
		ResourceType: "draft",
		ResourceID:   "d1",
		Description:  "Created draft: Test",
		Success:      true,
	})
	r.Record(context.Background(), Entry{
		Action:       ActionDraftSubmit,
		ActorID:      "user-1",
		ResourceType: "draft",
		ResourceID:   "d1",
		Description:  "Submitted draft for review: Test",
		Success:      true,
	})
	r.Record(context.Background(), Entry{
		Action:      ActionSystemError,
		Description: "webhook handler failed",
		Success:     false,
	})

	all, total, err := r.List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	// newest first
	require.Equal(t, ActionSystemError, all[0].Action)

	byActor, total, err := r.List(context.Background(), Filter{ActorID: "user-1"})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	for _, rec := range byActor {
		require.Equal(t, "user-1", rec.ActorID)
		require.NotEmpty(t, rec.ID)
		require.False(t, rec.CreatedAt.IsZero())
	}

	paged, total, err := r.List(context.Background(), Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, paged, 1)
}
