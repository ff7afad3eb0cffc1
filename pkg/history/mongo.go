package history

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo defaults.
const (
	DefaultDatabase   = "trip"
	DefaultCollection = "runs"
)

// MongoStore keeps runs in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// runDoc is the stored form of a Run. Seeds are kept as int64 bit patterns
// since BSON has no unsigned 64-bit integer.
type runDoc struct {
	ID         string    `bson:"_id"`
	Recipe     string    `bson:"recipe"`
	Steps      int       `bson:"steps"`
	Seed       int64     `bson:"seed"`
	InputName  string    `bson:"input_name,omitempty"`
	InputHash  string    `bson:"input_hash"`
	Format     string    `bson:"format"`
	Width      int       `bson:"width"`
	Height     int       `bson:"height"`
	Bytes      int       `bson:"bytes"`
	CacheHit   bool      `bson:"cache_hit"`
	Source     string    `bson:"source,omitempty"`
	StartedAt  time.Time `bson:"started_at"`
	DurationMS int64     `bson:"duration_ms"`
	Error      string    `bson:"error,omitempty"`
}

func toDoc(r Run) runDoc {
	return runDoc{
		ID:         r.ID,
		Recipe:     r.Recipe,
		Steps:      r.Steps,
		Seed:       int64(r.Seed),
		InputName:  r.InputName,
		InputHash:  r.InputHash,
		Format:     r.Format,
		Width:      r.Width,
		Height:     r.Height,
		Bytes:      r.Bytes,
		CacheHit:   r.CacheHit,
		Source:     r.Source,
		StartedAt:  r.StartedAt.UTC(),
		DurationMS: r.Duration.Milliseconds(),
		Error:      r.Error,
	}
}

func (d runDoc) run() Run {
	return Run{
		ID:        d.ID,
		Recipe:    d.Recipe,
		Steps:     d.Steps,
		Seed:      uint64(d.Seed),
		InputName: d.InputName,
		InputHash: d.InputHash,
		Format:    d.Format,
		Width:     d.Width,
		Height:    d.Height,
		Bytes:     d.Bytes,
		CacheHit:  d.CacheHit,
		Source:    d.Source,
		StartedAt: d.StartedAt,
		Duration:  time.Duration(d.DurationMS) * time.Millisecond,
		Error:     d.Error,
	}
}

// NewMongoStore connects to uri and uses database.collection, creating a
// descending index on started_at. Empty names fall back to the defaults.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if database == "" {
		database = DefaultDatabase
	}
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "started_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &MongoStore{client: client, coll: coll}, nil
}

// Record inserts run.
func (s *MongoStore) Record(ctx context.Context, run Run) error {
	if _, err := s.coll.InsertOne(ctx, toDoc(run)); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *MongoStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find runs: %w", err)
	}
	var docs []runDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}

	out := make([]Run, len(docs))
	for i, d := range docs {
		out[i] = d.run()
	}
	return out, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
