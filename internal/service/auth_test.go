package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"studyhall/internal/model"
)

type fakeUserRepo struct {
	byID   map[string]*model.UserProfile
	byName map[string]*model.UserProfile
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:   make(map[string]*model.UserProfile),
		byName: make(map[string]*model.UserProfile),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.UserProfile) error {
	f.byID[user.ID] = user
	f.byName[user.DisplayName] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.UserProfile, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) GetByDisplayName(_ context.Context, name string) (*model.UserProfile, error) {
	if u, ok := f.byName[name]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) AddPoints(_ context.Context, id string, delta int) error {
	if u, ok := f.byID[id]; ok {
		u.Points += delta
	}
	return nil
}

func TestLoginEnrollsNewLearner(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAuthService("opensesame", "test-secret", users)

	resp, err := svc.Login(context.Background(), "ada", "opensesame")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.UserID)

	// The learner record exists after first login.
	u, err := users.GetByDisplayName(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, u.ID)
}

func TestLoginReturningLearnerKeepsID(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAuthService("opensesame", "test-secret", users)

	first, err := svc.Login(context.Background(), "ada", "opensesame")
	require.NoError(t, err)
	second, err := svc.Login(context.Background(), "ada", "opensesame")
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)
}

func TestLoginRejectsWrongPasscode(t *testing.T) {
	svc := NewAuthService("opensesame", "test-secret", newFakeUserRepo())

	_, err := svc.Login(context.Background(), "ada", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "", "opensesame")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	svc := NewAuthService("opensesame", "test-secret", newFakeUserRepo())

	resp, err := svc.Login(context.Background(), "ada", "opensesame")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, claims.UserID)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService("opensesame", "test-secret", newFakeUserRepo())

	_, err := svc.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewAuthService("opensesame", "secret-a", newFakeUserRepo())
	verifier := NewAuthService("opensesame", "secret-b", newFakeUserRepo())

	resp, err := issuer.Login(context.Background(), "ada", "opensesame")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
