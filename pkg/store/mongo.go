package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultMongoCollection is the collection used by the mongo backend.
const DefaultMongoCollection = "boards"

// Mongo stores one document per board.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoRecord struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Digest    string    `bson:"digest"`
	Encoding  string    `bson:"encoding"`
	Size      int       `bson:"size"`
	Data      []byte    `bson:"data,omitempty"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (m mongoRecord) summary() Summary {
	return Summary{ID: m.ID, Title: m.Title, Digest: m.Digest, Size: m.Size, UpdatedAt: m.UpdatedAt.UTC()}
}

// summaryProjection leaves out the data field.
var summaryProjection = bson.M{"data": 0}

// NewMongo connects to uri and uses database's boards collection.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	if database == "" {
		database = "whiteboard"
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Mongo{client: client, coll: client.Database(database).Collection(DefaultMongoCollection)}, nil
}

// Name implements Backend.
func (s *Mongo) Name() string { return "mongo" }

// Load implements Backend.
func (s *Mongo) Load(ctx context.Context, id string) (*Record, error) {
	var m mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load board: %w", err)
	}
	return &Record{
		ID: m.ID, Title: m.Title, Digest: m.Digest, Encoding: Encoding(m.Encoding),
		Size: m.Size, Data: m.Data, UpdatedAt: m.UpdatedAt.UTC(),
	}, nil
}

// Stat implements Backend.
func (s *Mongo) Stat(ctx context.Context, id string) (Summary, error) {
	var m mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(summaryProjection)).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Summary{}, ErrNotFound
	}
	if err != nil {
		return Summary{}, fmt.Errorf("stat board: %w", err)
	}
	return m.summary(), nil
}

// Save implements Backend.
func (s *Mongo) Save(ctx context.Context, r *Record) error {
	m := mongoRecord{
		ID: r.ID, Title: r.Title, Digest: r.Digest, Encoding: string(r.Encoding),
		Size: r.Size, Data: r.Data, UpdatedAt: r.UpdatedAt,
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": r.ID}, m, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save board: %w", err)
	}
	return nil
}

// Remove implements Backend.
func (s *Mongo) Remove(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Scan implements Backend.
func (s *Mongo) Scan(ctx context.Context) ([]Summary, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetProjection(summaryProjection))
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer cur.Close(ctx)

	var out []Summary
	for cur.Next(ctx) {
		var m mongoRecord
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode board: %w", err)
		}
		out = append(out, m.summary())
	}
	return out, cur.Err()
}

// Ping checks that the server is reachable.
func (s *Mongo) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close implements Backend.
func (s *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Backend = (*Mongo)(nil)
