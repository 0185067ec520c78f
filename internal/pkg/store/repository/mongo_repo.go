package repository

import (
	"context"
	"fmt"

	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	"github.com/Nevi32/wofuo1/internal/pkg/models"
	"github.com/Nevi32/wofuo1/internal/service/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoCollectionStore is the remote collection store backed by one MongoDB
// database, one Mongo collection per ledger collection.
type MongoCollectionStore struct {
	collection func(name string) interfaces.MongoRepositoryInterface
}

func NewMongoCollectionStore(db *mongo.Database) *MongoCollectionStore {
	return &MongoCollectionStore{
		collection: func(name string) interfaces.MongoRepositoryInterface {
			return db.Collection(name)
		},
	}
}

// NewMongoCollectionStoreWithProvider is used by tests to inject collection handles.
func NewMongoCollectionStoreWithProvider(provider func(name string) interfaces.MongoRepositoryInterface) *MongoCollectionStore {
	return &MongoCollectionStore{collection: provider}
}

func (s *MongoCollectionStore) Query(
	ctx context.Context,
	collection string,
	filters map[string]interface{},
) ([]models.RemoteDocument, error) {
	filter := bson.M{}
	for k, v := range filters {
		filter[k] = v
	}

	cursor, err := s.collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, error_handling.NewRemoteUnavailableError("query "+collection, err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var results []models.RemoteDocument
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, error_handling.NewRemoteUnavailableError("decode "+collection, err)
		}
		id := documentID(doc["_id"])
		delete(doc, "_id")
		results = append(results, models.RemoteDocument{ID: id, Fields: map[string]interface{}(doc)})
	}
	if err := cursor.Err(); err != nil {
		return nil, error_handling.NewRemoteUnavailableError("query "+collection, err)
	}
	return results, nil
}

func (s *MongoCollectionStore) Insert(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	result, err := s.collection(collection).InsertOne(ctx, withoutID(fields))
	if err != nil {
		return "", error_handling.NewRemoteUnavailableError("insert "+collection, err)
	}
	return documentID(result.InsertedID), nil
}

func (s *MongoCollectionStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	result, err := s.collection(collection).UpdateOne(ctx,
		bson.M{"_id": idFilterValue(id)},
		bson.M{"$set": withoutID(fields)},
	)
	if err != nil {
		return error_handling.NewRemoteUnavailableError("update "+collection, err)
	}
	if result.MatchedCount == 0 {
		return error_handling.NewNotFoundError(collection, id)
	}
	return nil
}

func (s *MongoCollectionStore) Delete(ctx context.Context, collection, id string) error {
	result, err := s.collection(collection).DeleteOne(ctx, bson.M{"_id": idFilterValue(id)})
	if err != nil {
		return error_handling.NewRemoteUnavailableError("delete "+collection, err)
	}
	if result.DeletedCount == 0 {
		return error_handling.NewNotFoundError(collection, id)
	}
	return nil
}

func withoutID(fields map[string]interface{}) bson.M {
	doc := bson.M{}
	for k, v := range fields {
		if k == "_id" {
			continue
		}
		doc[k] = v
	}
	return doc
}

func documentID(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

func idFilterValue(id string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}
