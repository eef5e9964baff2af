package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"studyhall/internal/model"
)

type MessageRepo interface {
	Create(ctx context.Context, msg *model.ChatMessage) error
	GetBySessionID(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	// GetRecentByUserID returns user-authored messages from other sessions
	// within the lookback window, oldest first.
	GetRecentByUserID(ctx context.Context, userID, excludeSessionID string, since time.Time, limit int) ([]model.ChatMessage, error)
}

type messageRepo struct {
	collection *mongo.Collection
}

func NewMessageRepo(client *mongo.Client) MessageRepo {
	db := client.Database("studyhall")
	return &messageRepo{
		collection: db.Collection("messages"),
	}
}

func (r *messageRepo) Create(ctx context.Context, msg *model.ChatMessage) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, msg)
	return err
}

func (r *messageRepo) GetBySessionID(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []model.ChatMessage
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepo) GetRecentByUserID(ctx context.Context, userID, excludeSessionID string, since time.Time, limit int) ([]model.ChatMessage, error) {
	filter := bson.M{
		"authorId":  userID,
		"sessionId": bson.M{"$ne": excludeSessionID},
		"timestamp": bson.M{"$gte": since},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []model.ChatMessage
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	// Newest-first from Mongo, oldest-first for prompt assembly.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
