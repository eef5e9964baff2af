package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"studyhall/internal/model"
)

type UserRepo interface {
	Create(ctx context.Context, user *model.UserProfile) error
	GetByID(ctx context.Context, id string) (*model.UserProfile, error)
	GetByDisplayName(ctx context.Context, name string) (*model.UserProfile, error)
	AddPoints(ctx context.Context, id string, delta int) error
}

type userRepo struct {
	collection *mongo.Collection
}

func NewUserRepo(client *mongo.Client) UserRepo {
	db := client.Database("studyhall")
	return &userRepo{
		collection: db.Collection("users"),
	}
}

func (r *userRepo) Create(ctx context.Context, user *model.UserProfile) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, user)
	return err
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.UserProfile, error) {
	var user model.UserProfile
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByDisplayName(ctx context.Context, name string) (*model.UserProfile, error) {
	var user model.UserProfile
	err := r.collection.FindOne(ctx, bson.M{"displayName": name}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) AddPoints(ctx context.Context, id string, delta int) error {
	update := bson.M{"$inc": bson.M{"points": delta}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
