package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"studyhall/internal/model"
)

type SessionRepo interface {
	Create(ctx context.Context, session *model.TutorSession) error
	GetByID(ctx context.Context, id string) (*model.TutorSession, error)
	GetByUserID(ctx context.Context, userID string) ([]*model.TutorSession, error)
	MarkEnded(ctx context.Context, id string) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(client *mongo.Client) SessionRepo {
	db := client.Database("studyhall")
	return &sessionRepo{
		collection: db.Collection("sessions"),
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.TutorSession) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	session.Status = model.SessionActive

	_, err := r.collection.InsertOne(ctx, session)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.TutorSession, error) {
	var session model.TutorSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) GetByUserID(ctx context.Context, userID string) ([]*model.TutorSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.TutorSession
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) MarkEnded(ctx context.Context, id string) error {
	now := time.Now()
	update := bson.M{"$set": bson.M{
		"status":  model.SessionEnded,
		"endedAt": now,
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
