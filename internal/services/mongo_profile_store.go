package services

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gatherly/backend/internal/models"
)

type mongoProfileDoc struct {
	UserID     string    `bson:"user_id"`
	Bio        *string   `bson:"bio,omitempty"`
	CoverPhoto *string   `bson:"coverPhoto,omitempty"`
	Location   *string   `bson:"location,omitempty"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func (d *mongoProfileDoc) record() *models.ProfileRecord {
	return &models.ProfileRecord{Bio: d.Bio, CoverPhoto: d.CoverPhoto, Location: d.Location}
}

// MongoProfileStore keeps profile records in a MongoDB collection keyed by user_id.
type MongoProfileStore struct {
	client      *mongo.Client
	profilesCol *mongo.Collection
}

func NewMongoProfileStore(ctx context.Context, mongoURI, dbName string) (*MongoProfileStore, error) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetTLSConfig(tlsCfg))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	col := client.Database(dbName).Collection(ProfilesCollection)

	// Best-effort index.
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoProfileStore{client: client, profilesCol: col}, nil
}

func (s *MongoProfileStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoProfileStore) ReadProfile(ctx context.Context, userID string) (*models.ProfileRecord, error) {
	var doc mongoProfileDoc
	err := s.profilesCol.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find profile %s: %w", userID, err)
	}
	return doc.record(), nil
}

// WatchProfile emits the current record, then follows a change stream. Change
// streams require a replica set.
func (s *MongoProfileStore) WatchProfile(ctx context.Context, userID string) (<-chan models.ProfileSnapshot, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"fullDocument.user_id": userID}}},
	}
	stream, err := s.profilesCol.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, fmt.Errorf("mongo: watch profile %s: %w", userID, err)
	}

	out := make(chan models.ProfileSnapshot)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		rec, err := s.ReadProfile(ctx, userID)
		if !sendSnapshot(ctx, out, models.ProfileSnapshot{Record: rec, Err: err}) {
			return
		}

		for stream.Next(ctx) {
			var ev struct {
				FullDocument *mongoProfileDoc `bson:"fullDocument"`
			}
			if err := stream.Decode(&ev); err != nil {
				if !sendSnapshot(ctx, out, models.ProfileSnapshot{Err: err}) {
					return
				}
				continue
			}
			var rec *models.ProfileRecord
			if ev.FullDocument != nil {
				rec = ev.FullDocument.record()
			}
			if !sendSnapshot(ctx, out, models.ProfileSnapshot{Record: rec}) {
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			sendSnapshot(ctx, out, models.ProfileSnapshot{Err: err})
		}
	}()
	return out, nil
}

// WriteProfile replaces the whole document so fields never written before are created too.
func (s *MongoProfileStore) WriteProfile(ctx context.Context, userID string, fields models.ProfileFields) error {
	rec := fields.Record()
	doc := mongoProfileDoc{
		UserID:     userID,
		Bio:        rec.Bio,
		CoverPhoto: rec.CoverPhoto,
		Location:   rec.Location,
		UpdatedAt:  time.Now(),
	}
	_, err := s.profilesCol.ReplaceOne(ctx, bson.M{"user_id": userID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: replace profile %s: %w", userID, err)
	}
	return nil
}

// DefaultStoreTimeout bounds connecting to the store.
func DefaultStoreTimeout() time.Duration { return 10 * time.Second }
