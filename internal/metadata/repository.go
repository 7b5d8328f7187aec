package metadata

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists metadata records keyed by document path.
type Repository interface {
	UpsertByPath(ctx context.Context, rec *Record) (*Record, error)
	GetByPath(ctx context.Context, path string) (*Record, error)
	DeleteByPath(ctx context.Context, path string) error
	Search(ctx context.Context, f SearchFilter) ([]*Record, int64, error)
	Stats(ctx context.Context) (*Stats, error)
}

// MongoRepository stores metadata records in MongoDB with a unique index on
// path so the upsert cannot duplicate.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "path", Value: 1}}, Options: options.Index().SetUnique(true)}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepository{col: col}
}

func (r *MongoRepository) UpsertByPath(ctx context.Context, rec *Record) (*Record, error) {
	now := time.Now().UTC()
	set := bson.M{
		"title":       rec.Title,
		"slug":        rec.Slug,
		"category":    rec.Category,
		"tags":        rec.Tags,
		"team":        rec.Team,
		"description": rec.Description,
		"author":      rec.Author,
		"version":     rec.Version,
		"gitSha":      rec.GitSHA,
		"gitUrl":      rec.GitURL,
		"wordCount":   rec.WordCount,
		"readingTime": rec.ReadingTime,
		"updatedAt":   now,
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": uuid.NewString(), "path": rec.Path, "createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var updated Record
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"path": rec.Path}, update, opts).Decode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *MongoRepository) GetByPath(ctx context.Context, path string) (*Record, error) {
	var rec Record
	if err := r.col.FindOne(ctx, bson.M{"path": path}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *MongoRepository) DeleteByPath(ctx context.Context, path string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"path": path})
	return err
}

func (r *MongoRepository) Search(ctx context.Context, f SearchFilter) ([]*Record, int64, error) {
	filter := bson.M{}
	if f.Query != "" {
		pattern := primitiveRegex(f.Query)
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Team != "" {
		filter["team"] = f.Team
	}
	if len(f.Tags) > 0 {
		filter["tags"] = bson.M{"$all": f.Tags}
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

func (r *MongoRepository) Stats(ctx context.Context) (*Stats, error) {
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	stats := &Stats{TotalDocuments: total, Categories: map[string]int64{}}
	if total == 0 {
		return stats, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":            "$category",
			"count":          bson.M{"$sum": 1},
			"avgWordCount":   bson.M{"$avg": "$wordCount"},
			"avgReadingTime": bson.M{"$avg": "$readingTime"},
			"lastUpdated":    bson.M{"$max": "$updatedAt"},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var sumWords, sumReading float64
	var groups int64
	for cur.Next(ctx) {
		var row struct {
			ID             string    `bson:"_id"`
			Count          int64     `bson:"count"`
			AvgWordCount   float64   `bson:"avgWordCount"`
			AvgReadingTime float64   `bson:"avgReadingTime"`
			LastUpdated    time.Time `bson:"lastUpdated"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		if row.ID != "" {
			stats.Categories[row.ID] = row.Count
		}
		sumWords += row.AvgWordCount * float64(row.Count)
		sumReading += row.AvgReadingTime * float64(row.Count)
		groups += row.Count
		if stats.LastUpdated == nil || row.LastUpdated.After(*stats.LastUpdated) {
			lu := row.LastUpdated
			stats.LastUpdated = &lu
		}
	}
	if groups > 0 {
		stats.AvgWordCount = sumWords / float64(groups)
		stats.AvgReadingTime = sumReading / float64(groups)
	}
	return stats, cur.Err()
}

func primitiveRegex(q string) bson.M {
	return bson.M{"$regex": regexEscape(q), "$options": "i"}
}

func regexEscape(s string) string {
	special := `\.+*?()|[]{}^$`
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(special, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MemoryRepository backs unit tests and single-instance deployments without
// MongoDB.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*Record)}
}

func (r *MemoryRepository) UpsertByPath(ctx context.Context, rec *Record) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := r.store[rec.Path]
	cp := *rec
	if ok {
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.ID = uuid.NewString()
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	r.store[rec.Path] = &cp
	out := cp
	return &out, nil
}

func (r *MemoryRepository) GetByPath(ctx context.Context, path string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rec, ok := r.store[path]; ok {
		out := *rec
		return &out, nil
	}
	return nil, nil
}

func (r *MemoryRepository) DeleteByPath(ctx context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.store, path)
	return nil
}

func (r *MemoryRepository) Search(ctx context.Context, f SearchFilter) ([]*Record, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*Record{}
	for _, rec := range r.store {
		if f.Query != "" {
			q := strings.ToLower(f.Query)
			if !strings.Contains(strings.ToLower(rec.Title), q) &&
				!strings.Contains(strings.ToLower(rec.Description), q) {
				continue
			}
		}
		if f.Category != "" && rec.Category != f.Category {
			continue
		}
		if f.Team != "" && rec.Team != f.Team {
			continue
		}
		if len(f.Tags) > 0 && !containsAll(rec.Tags, f.Tags) {
			continue
		}
		out := *rec
		matched = append(matched, &out)
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

func (r *MemoryRepository) Stats(ctx context.Context) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &Stats{TotalDocuments: int64(len(r.store)), Categories: map[string]int64{}}
	if len(r.store) == 0 {
		return stats, nil
	}

	var sumWords, sumReading float64
	for _, rec := range r.store {
		if rec.Category != "" {
			stats.Categories[rec.Category]++
		}
		sumWords += float64(rec.WordCount)
		sumReading += float64(rec.ReadingTime)
		if stats.LastUpdated == nil || rec.UpdatedAt.After(*stats.LastUpdated) {
			lu := rec.UpdatedAt
			stats.LastUpdated = &lu
		}
	}
	stats.AvgWordCount = sumWords / float64(len(r.store))
	stats.AvgReadingTime = sumReading / float64(len(r.store))
	return stats, nil
}

func containsAll(haystack, needles []string) bool {
	for _, n := range needles {
		found := false
		for _, h := range haystack {
			if h == n {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
