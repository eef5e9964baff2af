package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"studyhall/internal/model"
)

type QuizRepo interface {
	CreateResult(ctx context.Context, result *model.QuizResult) error
	GetResultsByUserID(ctx context.Context, userID string) ([]*model.QuizResult, error)
	CountByUserID(ctx context.Context, userID string) (taken int64, correct int64, err error)
}

type quizRepo struct {
	collection *mongo.Collection
}

func NewQuizRepo(client *mongo.Client) QuizRepo {
	db := client.Database("studyhall")
	return &quizRepo{
		collection: db.Collection("quiz_results"),
	}
}

func (r *quizRepo) CreateResult(ctx context.Context, result *model.QuizResult) error {
	if result.AnsweredAt.IsZero() {
		result.AnsweredAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, result)
	return err
}

func (r *quizRepo) GetResultsByUserID(ctx context.Context, userID string) ([]*model.QuizResult, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*model.QuizResult
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *quizRepo) CountByUserID(ctx context.Context, userID string) (int64, int64, error) {
	taken, err := r.collection.CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, 0, err
	}
	correct, err := r.collection.CountDocuments(ctx, bson.M{"userId": userID, "correct": true})
	if err != nil {
		return 0, 0, err
	}
	return taken, correct, nil
}
