package audit

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists audit records. The interface is append-only: there is
// deliberately no update or delete.
type Repository interface {
	Insert(ctx context.Context, rec *Record) error
	List(ctx context.Context, f Filter) ([]*Record, int64, error)
}

// MongoRepository stores audit records in a MongoDB collection.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, rec *Record) error {
	_, err := r.col.InsertOne(ctx, rec)
	return err
}

func (r *MongoRepository) List(ctx context.Context, f Filter) ([]*Record, int64, error) {
	filter := bson.M{}
	if f.ActorID != "" {
		filter["actorId"] = f.ActorID
	}
	if f.Action != "" {
		filter["action"] = f.Action
	}
	if f.ResourceType != "" {
		filter["resourceType"] = f.ResourceType
	}
	if f.ResourceID != "" {
		filter["resourceId"] = f.ResourceID
	}
	if f.Since != nil || f.Until != nil {
		created := bson.M{}
		if f.Since != nil {
			created["$gte"] = *f.Since
		}
		if f.Until != nil {
			created["$lt"] = *f.Until
		}
		filter["createdAt"] = created
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	if f.Offset > 0 {
		opts.SetSkip(int64(f.Offset))
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	out := []*Record{}
	for cur.Next(ctx) {
		var rec Record
		if err := cur.Decode(&rec); err != nil {
			return nil, 0, err
		}
		out = append(out, &rec)
	}
	return out, total, cur.Err()
}

// MemoryRepository is the in-process fallback used when MongoDB is not
// configured, and by unit tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	recs []*Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Insert(ctx context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.recs = append(r.recs, &cp)
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, f Filter) ([]*Record, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*Record{}
	for i := len(r.recs) - 1; i >= 0; i-- { // newest first
		rec := r.recs[i]
		if f.ActorID != "" && rec.ActorID != f.ActorID {
			continue
		}
		if f.Action != "" && rec.Action != f.Action {
			continue
		}
		if f.ResourceType != "" && rec.ResourceType != f.ResourceType {
			continue
		}
		if f.ResourceID != "" && rec.ResourceID != f.ResourceID {
			continue
		}
		if f.Since != nil && rec.CreatedAt.Before(*f.Since) {
			continue
		}
		if f.Until != nil && !rec.CreatedAt.Before(*f.Until) {
			continue
		}
		matched = append(matched, rec)
	}

	total := int64(len(matched))
	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []*Record{}, total, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}
