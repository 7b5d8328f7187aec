package draft

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists drafts. Get returns (nil, nil) when the id is unknown;
// the service layer translates that into a not-found error.
type Repository interface {
	Insert(ctx context.Context, d *Draft) error
	Get(ctx context.Context, id string) (*Draft, error)
	List(ctx context.Context, f ListFilter) ([]*Draft, int64, error)
	Update(ctx context.Context, d *Draft) error
	Delete(ctx context.Context, id string) error
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "authorId", Value: 1}, {Key: "updatedAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, d *Draft) error {
	_, err := r.col.InsertOne(ctx, d)
	return err
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*Draft, error) {
	var d Draft
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *MongoRepository) List(ctx context.Context, f ListFilter) ([]*Draft, int64, error) {
	filter := bson.M{}
	if f.AuthorID != "" {
		filter["authorId"] = f.AuthorID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
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

	out := []*Draft{}
	for cur.Next(ctx) {
		var d Draft
		if err := cur.Decode(&d); err != nil {
			return nil, 0, err
		}
		out = append(out, &d)
	}
	return out, total, cur.Err()
}

func (r *MongoRepository) Update(ctx context.Context, d *Draft) error {
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	return err
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// MemoryRepository backs unit tests and single-instance deployments.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*Draft
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*Draft)}
}

func (r *MemoryRepository) Insert(ctx context.Context, d *Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.store[d.ID] = &cp
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*Draft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.store[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryRepository) List(ctx context.Context, f ListFilter) ([]*Draft, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*Draft{}
	for _, d := range r.store {
		if f.AuthorID != "" && d.AuthorID != f.AuthorID {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		cp := *d
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	total := int64(len(matched))
	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []*Draft{}, total, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func (r *MemoryRepository) Update(ctx context.Context, d *Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.store[d.ID] = &cp
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.store, id)
	return nil
}
