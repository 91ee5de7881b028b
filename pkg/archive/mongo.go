package archive

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/matzehuels/microperf/pkg/errors"
)

const (
	// DefaultDatabase is used when the URI names no database.
	DefaultDatabase = "microperf"

	runsCollection = "runs"
	connectTimeout = 10 * time.Second
)

// MongoStore keeps records in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	runs   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongodb")
	}

	db := DefaultDatabase
	if cs, err := connstring.Parse(uri); err == nil && cs.Database != "" {
		db = cs.Database
	}
	return NewMongoStoreFromClient(ctx, client, db)
}

// NewMongoStoreFromClient wraps an existing client and ensures the
// created_at index exists.
func NewMongoStoreFromClient(ctx context.Context, client *mongo.Client, database string) (*MongoStore, error) {
	runs := client.Database(database).Collection(runsCollection)
	_, err := runs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create runs index")
	}
	return &MongoStore{client: client, runs: runs}, nil
}

// Save implements Store. Saving an existing ID replaces the record.
func (s *MongoStore) Save(ctx context.Context, rec Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	_, err := s.runs.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save run %s", rec.ID)
	}
	return nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := s.runs.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, errors.New(errors.ErrCodeNotFound, "run %q not found", id)
	}
	if err != nil {
		return Record{}, errors.Wrap(errors.ErrCodeInternal, err, "get run %s", id)
	}
	return rec, nil
}

// List implements Store.
func (s *MongoStore) List(ctx context.Context, limit int) ([]Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(normalizeLimit(limit)))

	cur, err := s.runs.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list runs")
	}
	out := []Record{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode runs")
	}
	return out, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
