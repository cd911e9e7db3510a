package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore persists subscriber records as one document per user.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore returns a store backed by the named collection.
func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	return &MongoStore{coll: db.Collection(collection)}
}

func (s *MongoStore) Get(ctx context.Context, userID string) (*Record, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("find subscriber %s: %w", userID, err)
	}
	return &rec, nil
}

func (s *MongoStore) MarkPaid(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrMissingUserID
	}

	now := time.Now().UTC()
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$set":         bson.M{"paid": true, "paid_at": now},
			"$setOnInsert": bson.M{"joined_at": now},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mark subscriber %s paid: %w", userID, err)
	}
	return nil
}

func (s *MongoStore) IncrementMessageCount(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrMissingUserID
	}

	var rec Record
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$inc":         bson.M{"message_count": 1},
			"$setOnInsert": bson.M{"joined_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&rec)
	if err != nil {
		return 0, fmt.Errorf("increment message count for %s: %w", userID, err)
	}
	return rec.MessageCount, nil
}
