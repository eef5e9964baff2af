package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studyhall/internal/cache"
	"studyhall/internal/config"
	"studyhall/internal/engine"
	"studyhall/internal/model"
	"studyhall/internal/repository"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotOwner        = errors.New("session belongs to another learner")
)

// TutorService owns the arena of live dialogue sessions and bridges them
// to persistence, caching, and event listeners.
type TutorService struct {
	cfg       *config.EngineConfig
	logger    *zap.Logger
	gen       engine.Generator
	search    engine.Searcher
	listener  engine.Listener
	telemetry engine.Telemetry

	sessions repository.SessionRepo
	messages repository.MessageRepo
	quizzes  repository.QuizRepo
	users    repository.UserRepo

	sessionCache cache.SessionCache
	statsCache   cache.StatsCache

	mu    sync.RWMutex
	arena map[string]*engine.Session
}

// TutorOptions wires the tutor service's collaborators
type TutorOptions struct {
	Config       *config.EngineConfig
	Logger       *zap.Logger
	Generator    engine.Generator
	Searcher     engine.Searcher
	Listener     engine.Listener
	Telemetry    engine.Telemetry
	SessionRepo  repository.SessionRepo
	MessageRepo  repository.MessageRepo
	QuizRepo     repository.QuizRepo
	UserRepo     repository.UserRepo
	SessionCache cache.SessionCache
	StatsCache   cache.StatsCache
}

func NewTutorService(opts TutorOptions) *TutorService {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultEngineConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TutorService{
		cfg:          cfg,
		logger:       logger,
		gen:          opts.Generator,
		search:       opts.Searcher,
		listener:     opts.Listener,
		telemetry:    opts.Telemetry,
		sessions:     opts.SessionRepo,
		messages:     opts.MessageRepo,
		quizzes:      opts.QuizRepo,
		users:        opts.UserRepo,
		sessionCache: opts.SessionCache,
		statsCache:   opts.StatsCache,
		arena:        make(map[string]*engine.Session),
	}
}

// CreateSession persists a new tutoring session and starts its dialogue
// state machine.
func (s *TutorService) CreateSession(ctx context.Context, userID, subject, difficulty string, goals []string) (*model.TutorSession, error) {
	if subject == "" {
		subject = "general"
	}
	session := &model.TutorSession{
		ID:         uuid.New().String(),
		UserID:     userID,
		Subject:    subject,
		Difficulty: difficulty,
		Goals:      goals,
		CreatedAt:  time.Now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	if err := s.sessionCache.Set(ctx, session); err != nil {
		s.logger.Warn("session not cached", zap.Error(err))
	}

	eng := engine.NewSession(engine.Options{
		SessionID: session.ID,
		UserID:    userID,
		Subject:   subject,
		Config:    s.cfg,
		Logger:    s.logger,
		Generator: s.gen,
		Searcher:  s.search,
		Store:     s.storeFor(userID),
		Listener:  s.listener,
		Telemetry: s.telemetry,
	})
	if err := eng.Start(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.arena[session.ID] = eng
	s.mu.Unlock()

	return session, nil
}

// SendMessage routes one learner utterance into the session's state machine
func (s *TutorService) SendMessage(ctx context.Context, sessionID, userID, text string) (*model.ChatMessage, error) {
	eng, err := s.liveSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	return eng.SendMessage(ctx, text)
}

// GetMessages returns the persisted transcript for a session
func (s *TutorService) GetMessages(ctx context.Context, sessionID, userID string) ([]model.ChatMessage, error) {
	if _, err := s.ownedSession(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	return s.messages.GetBySessionID(ctx, sessionID)
}

// EndSession finishes the dialogue, persists the outcome, and updates
// learner aggregates.
func (s *TutorService) EndSession(ctx context.Context, sessionID, userID string) (*model.SessionSummary, error) {
	eng, err := s.liveSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	summary, err := eng.End(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.MarkEnded(ctx, sessionID); err != nil {
		s.logger.Warn("session not marked ended", zap.Error(err))
	}
	if err := s.sessionCache.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("session cache not cleared", zap.Error(err))
	}

	if summary.PointsDelta > 0 {
		if err := s.users.AddPoints(ctx, userID, summary.PointsDelta); err != nil {
			s.logger.Warn("points not persisted", zap.Error(err))
		}
	}
	if err := s.statsCache.InvalidateStats(ctx, userID); err != nil {
		s.logger.Warn("stats cache not invalidated", zap.Error(err))
	}
	if user, err := s.users.GetByID(ctx, userID); err == nil {
		if err := s.statsCache.UpdateLeaderboard(ctx, userID, user.Points); err != nil {
			s.logger.Warn("leaderboard not updated", zap.Error(err))
		}
	}

	s.mu.Lock()
	delete(s.arena, sessionID)
	s.mu.Unlock()

	return summary, nil
}

// GetStats returns learner aggregates, cached in Redis and rebuilt from
// Mongo on a miss.
func (s *TutorService) GetStats(ctx context.Context, userID string) (*model.LearnerStats, error) {
	if stats, err := s.statsCache.GetStats(ctx, userID); err == nil {
		return stats, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	taken, correct, err := s.quizzes.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	ended := 0
	if sessions, err := s.sessions.GetByUserID(ctx, userID); err == nil {
		for _, sess := range sessions {
			if sess.Status == model.SessionEnded {
				ended++
			}
		}
	}

	stats := &model.LearnerStats{
		Points:         user.Points,
		QuizzesTaken:   int(taken),
		QuizzesCorrect: int(correct),
		SessionsEnded:  ended,
	}
	if err := s.statsCache.SetStats(ctx, userID, stats); err != nil {
		s.logger.Warn("stats not cached", zap.Error(err))
	}
	return stats, nil
}

// Leaderboard returns the top learners by points
func (s *TutorService) Leaderboard(ctx context.Context, limit int) ([]cache.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.statsCache.GetTop(ctx, limit)
}

// liveSession returns the running state machine for an owned session,
// resuming it from the persisted transcript when the process restarted.
func (s *TutorService) liveSession(ctx context.Context, sessionID, userID string) (*engine.Session, error) {
	session, err := s.ownedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionActive {
		return nil, ErrSessionNotFound
	}

	s.mu.RLock()
	eng, ok := s.arena[sessionID]
	s.mu.RUnlock()
	if ok {
		return eng, nil
	}

	eng = engine.NewSession(engine.Options{
		SessionID: sessionID,
		UserID:    userID,
		Subject:   session.Subject,
		Config:    s.cfg,
		Logger:    s.logger,
		Generator: s.gen,
		Searcher:  s.search,
		Store:     s.storeFor(userID),
		Listener:  s.listener,
		Telemetry: s.telemetry,
	})
	if err := eng.Start(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.arena[sessionID]; ok {
		eng = existing
	} else {
		s.arena[sessionID] = eng
	}
	s.mu.Unlock()
	return eng, nil
}

func (s *TutorService) ownedSession(ctx context.Context, sessionID, userID string) (*model.TutorSession, error) {
	session, err := s.sessionCache.Get(ctx, sessionID)
	if err != nil {
		session, err = s.sessions.GetByID(ctx, sessionID)
		if err != nil {
			return nil, ErrSessionNotFound
		}
	}
	if session.UserID != userID {
		return nil, ErrNotOwner
	}
	return session, nil
}

func (s *TutorService) storeFor(userID string) engine.Store {
	return &tutorStore{
		userID:   userID,
		messages: s.messages,
		quizzes:  s.quizzes,
		users:    s.users,
	}
}

// tutorStore adapts the repositories to the engine's Store interface for
// one learner.
type tutorStore struct {
	userID   string
	messages repository.MessageRepo
	quizzes  repository.QuizRepo
	users    repository.UserRepo
}

const carryoverLimit = 20

func (t *tutorStore) LoadSessionMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	return t.messages.GetBySessionID(ctx, sessionID)
}

func (t *tutorStore) AppendMessage(ctx context.Context, sessionID string, msg model.ChatMessage) error {
	return t.messages.Create(ctx, &msg)
}

func (t *tutorStore) LoadCrossSessionMessages(ctx context.Context, sessionID string, withinDays int) ([]model.ChatMessage, error) {
	since := time.Now().AddDate(0, 0, -withinDays)
	return t.messages.GetRecentByUserID(ctx, t.userID, sessionID, since, carryoverLimit)
}

func (t *tutorStore) GetUserProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	return t.users.GetByID(ctx, userID)
}

func (t *tutorStore) RecordQuizResult(ctx context.Context, res model.QuizResult) error {
	return t.quizzes.CreateResult(ctx, &res)
}
