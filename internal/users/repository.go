package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LevittC17/fambanasi-docs-engine-api/internal/models"
)

// Repository defines persistence operations for users
type Repository interface {
	UpsertBySub(ctx context.Context, u *models.User) (*models.User, error)
	GetBySub(ctx context.Context, sub string) (*models.User, error)
	SetRole(ctx context.Context, sub string, role models.Role) (*models.User, error)
}

// MongoRepository implements Repository using MongoDB
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "sub", Value: 1}}, Options: options.Index().SetUnique(true)}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepository{col: col}
}

// UpsertBySub refreshes profile fields from the identity provider. The role
// is only written on first sight; changing it afterwards goes through
// SetRole.
func (r *MongoRepository) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	role := u.Role
	if role == "" {
		role = models.RoleViewer
	}

	filter := bson.M{"sub": u.Sub}
	update := bson.M{
		"$set": bson.M{
			"email":     u.Email,
			"name":      u.Name,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"_id":       uuid.NewString(),
			"role":      role,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *MongoRepository) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"sub": sub}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoRepository) SetRole(ctx context.Context, sub string, role models.Role) (*models.User, error) {
	update := bson.M{"$set": bson.M{"role": role, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"sub": sub}, update, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &updated, nil
}

// MemoryRepository backs unit tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	bySub map[string]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{bySub: make(map[string]*models.User)}
}

func (r *MemoryRepository) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := r.bySub[u.Sub]
	if ok {
		existing.Email = u.Email
		existing.Name = u.Name
		existing.UpdatedAt = now
		out := *existing
		return &out, nil
	}

	role := u.Role
	if role == "" {
		role = models.RoleViewer
	}
	created := &models.User{
		ID:        uuid.NewString(),
		Sub:       u.Sub,
		Email:     u.Email,
		Name:      u.Name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.bySub[u.Sub] = created
	out := *created
	return &out, nil
}

func (r *MemoryRepository) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.bySub[sub]; ok {
		out := *u
		return &out, nil
	}
	return nil, nil
}

func (r *MemoryRepository) SetRole(ctx context.Context, sub string, role models.Role) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.bySub[sub]
	if !ok {
		return nil, nil
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	out := *u
	return &out, nil
}
