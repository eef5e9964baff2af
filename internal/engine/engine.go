package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studyhall/internal/config"
	"studyhall/internal/model"
)

// State is the dialogue session lifecycle state.
type State string

const (
	StateIdle        State = "idle"
	StateStarting    State = "starting"
	StateActive      State = "active"
	StateGenerating  State = "generating"
	StateQuizPending State = "quiz_pending"
	StateEnded       State = "ended"
)

var (
	ErrNotActive      = errors.New("session is not active")
	ErrAlreadyStarted = errors.New("session start already in progress")
	ErrBusy           = errors.New("a reply is being generated")
)

const errorReply = "Sorry, something went wrong on my end. Please resend your message and I'll try again."

// Generator is the external text-generation gateway.
type Generator interface {
	Generate(ctx context.Context, req *PromptRequest) (string, error)
	GenerateQuiz(ctx context.Context, req *PromptRequest) (*model.QuizPayload, error)
}

// SearchResult is one answer from the search gateway.
type SearchResult struct {
	Answer    string
	Timestamp time.Time
	FromCache bool
}

// Searcher is the external web-lookup gateway.
type Searcher interface {
	Search(ctx context.Context, query, contextSummary, userID string) (*SearchResult, error)
}

// Store is the persistence collaborator. The engine owns no wire format;
// it only reads and appends through this interface.
type Store interface {
	LoadSessionMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	AppendMessage(ctx context.Context, sessionID string, msg model.ChatMessage) error
	LoadCrossSessionMessages(ctx context.Context, sessionID string, withinDays int) ([]model.ChatMessage, error)
	GetUserProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	RecordQuizResult(ctx context.Context, res model.QuizResult) error
}

// Session is the dialogue state machine for one tutoring session. All
// message processing for a session is strictly sequential: the Generating
// state acts as the session mutex, and a send arriving while a reply is in
// flight is rejected until it clears.
type Session struct {
	id      string
	userID  string
	subject string

	cfg       *config.EngineConfig
	logger    *zap.Logger
	gen       Generator
	search    Searcher
	store     Store
	listener  Listener
	telemetry Telemetry
	post      *PostProcessor

	mu    sync.Mutex
	state State

	memory     *Memory
	facts      *FactExtractor
	activeQuiz *model.ActiveQuiz

	lastUserText string
	lastUserAt   time.Time

	startedAt      time.Time
	userMsgCount   int
	quizzesTaken   int
	quizzesCorrect int
	pointsDelta    int

	startErr error
}

// Options configures a new Session.
type Options struct {
	SessionID string
	UserID    string
	Subject   string
	Config    *config.EngineConfig
	Logger    *zap.Logger
	Generator Generator
	Searcher  Searcher
	Store     Store
	Listener  Listener
	Telemetry Telemetry
}

// NewSession creates a session state machine in the Idle state.
func NewSession(opts Options) *Session {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultEngineConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	listener := opts.Listener
	if listener == nil {
		listener = nopListener{}
	}
	telemetry := opts.Telemetry
	if telemetry == nil {
		telemetry = nopTelemetry{}
	}
	return &Session{
		id:        opts.SessionID,
		userID:    opts.UserID,
		subject:   opts.Subject,
		cfg:       cfg,
		logger:    logger.With(zap.String("sessionId", opts.SessionID)),
		gen:       opts.Generator,
		search:    opts.Searcher,
		store:     opts.Store,
		listener:  listener,
		telemetry: telemetry,
		post:      NewPostProcessor(cfg.SimpleTokenCeiling, logger),
		state:     StateIdle,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ActiveQuiz returns the pending quiz, if any.
func (s *Session) ActiveQuiz() *model.ActiveQuiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeQuiz
}

// StartErr returns the error recorded by a failed start, if any.
func (s *Session) StartErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startErr
}

// Start transitions Idle → Starting → Active: fresh session memory, the
// persisted transcript reloaded, and an initial system message when the
// transcript is empty. Concurrent start requests are rejected. A failed
// start records the error and returns the session to Idle.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateStarting {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("start from state %s: %w", s.state, ErrNotActive)
	}
	s.state = StateStarting
	s.mu.Unlock()

	memory := NewMemory(s.cfg.MemoryCapacity, s.cfg.AnalysisWindow)
	facts := NewFactExtractor(s.cfg.FactCapacity)

	persisted, err := s.store.LoadSessionMessages(ctx, s.id)
	if err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.startErr = err
		s.mu.Unlock()
		return fmt.Errorf("load session messages: %w", err)
	}
	for _, msg := range persisted {
		memory.AddMessage(msg)
		facts.ExtractFrom(msg)
	}

	s.mu.Lock()
	s.memory = memory
	s.facts = facts
	s.startedAt = time.Now()
	s.startErr = nil
	s.state = StateActive
	s.mu.Unlock()

	if len(persisted) == 0 {
		greeting := fmt.Sprintf("Welcome! I'm your %s tutor. Ask me anything, or say \"quiz me\" to practice.", s.subject)
		s.appendMessage(ctx, model.RoleSystem, greeting, model.TagNone)
	}

	s.telemetry.SessionStarted()
	s.emit(Event{SessionID: s.id, Type: EventSessionStarted, State: StateActive})
	return nil
}

// SendMessage processes one learner utterance. Duplicate submissions
// inside the dedupe window are dropped silently (nil, nil). A send while a
// reply is generating returns ErrBusy, preserving message ordering.
func (s *Session) SendMessage(ctx context.Context, text string) (*model.ChatMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	s.mu.Lock()
	switch s.state {
	case StateActive, StateQuizPending:
	case StateGenerating:
		s.mu.Unlock()
		return nil, ErrBusy
	default:
		s.mu.Unlock()
		return nil, ErrNotActive
	}

	now := time.Now()
	if trimmed == s.lastUserText && now.Sub(s.lastUserAt) < s.cfg.DedupeWindow {
		s.mu.Unlock()
		return nil, nil
	}
	s.lastUserText = trimmed
	s.lastUserAt = now

	// A pending quiz consumes a bare option letter; anything else clears it.
	quiz := s.activeQuiz
	if quiz != nil {
		if idx, ok := IsQuizAnswer(trimmed); ok {
			s.activeQuiz = nil
			s.state = StateActive
			s.mu.Unlock()
			return s.handleQuizAnswer(ctx, quiz, idx, trimmed)
		}
		s.activeQuiz = nil
	}

	s.state = StateGenerating
	s.mu.Unlock()
	s.emit(Event{SessionID: s.id, Type: EventStateChanged, State: StateGenerating})

	reply := s.process(ctx, trimmed)

	s.mu.Lock()
	if s.state == StateGenerating {
		if s.activeQuiz != nil {
			s.state = StateQuizPending
		} else {
			s.state = StateActive
		}
	} else if s.state == StateEnded {
		// The session ended mid-generation; the late reply is discarded.
		reply = nil
	}
	state := s.state
	s.mu.Unlock()
	s.emit(Event{SessionID: s.id, Type: EventStateChanged, State: state})
	return reply, nil
}

// process runs the full generation pipeline for one utterance. Any gateway
// or persistence failure is contained here: the learner sees one error
// message and the session stays usable.
func (s *Session) process(ctx context.Context, text string) *model.ChatMessage {
	analysis := Classify(text)

	// The snapshot for retrieval is taken before the new utterance enters
	// memory: a recall query must never rank against itself.
	s.mu.Lock()
	memory, facts := s.memory, s.facts
	if memory == nil || facts == nil {
		s.mu.Unlock()
		return nil
	}
	snapshot := memory.Messages()
	s.mu.Unlock()

	retrieved := Retrieve(snapshot, text, time.Now(), s.cfg.RetrievalLimit)

	userMsg := s.appendMessage(ctx, model.RoleUser, text, model.TagNone)

	s.mu.Lock()
	s.userMsgCount++
	s.pointsDelta++
	memory.UpdateFromAnalysis(analysis)
	facts.ExtractFrom(*userMsg)
	knownFacts := facts.Facts()
	contextSummary := memory.ContextSummary()
	s.mu.Unlock()

	var searchAnswer string
	if s.search != nil && NeedsWebSearch(text, analysis) {
		result, err := s.search.Search(ctx, text, contextSummary, s.userID)
		if err != nil {
			// A failed lookup degrades to answering without it.
			s.logger.Warn("web search failed", zap.Error(err))
		} else if result != nil {
			searchAnswer = result.Answer
		}
	}

	carryover, err := s.store.LoadCrossSessionMessages(ctx, s.id, s.cfg.CarryoverDays)
	if err != nil {
		s.logger.Warn("cross-session history unavailable", zap.Error(err))
	}
	profile, err := s.store.GetUserProfile(ctx, s.userID)
	if err != nil {
		s.logger.Warn("user profile unavailable", zap.Error(err))
	}

	req := SynthesizePrompt(PromptInput{
		Utterance:    text,
		Analysis:     analysis,
		Memory:       memory,
		Facts:        knownFacts,
		Retrieved:    retrieved,
		Carryover:    carryover,
		Profile:      profile,
		SearchAnswer: searchAnswer,
	}, s.cfg.HistoryWindow)

	if req.QuizRequested {
		return s.generateQuiz(ctx, req)
	}

	raw, err := s.gen.Generate(ctx, req)
	if s.interrupted() {
		s.logger.Info("reply discarded, session ended during generation")
		return nil
	}
	if err != nil {
		s.telemetry.GenerationFailed()
		s.logger.Error("generation failed", zap.Error(err))
		return s.appendMessage(ctx, model.RoleError, errorReply, model.TagNone)
	}

	shaped := s.post.Shape(raw, analysis)
	tag := model.TagNone
	if quiz := ParseQuizText(shaped, time.Now()); quiz != nil {
		s.mu.Lock()
		s.activeQuiz = quiz
		s.mu.Unlock()
		tag = model.TagQuiz
		s.emit(Event{SessionID: s.id, Type: EventQuizStarted, Payload: quiz})
	}

	s.telemetry.MessageProcessed()
	return s.appendMessage(ctx, model.RoleAssistant, shaped, tag)
}

// generateQuiz asks the gateway for structured quiz data so the correct
// index is explicit rather than parsed back out of prose.
func (s *Session) generateQuiz(ctx context.Context, req *PromptRequest) *model.ChatMessage {
	payload, err := s.gen.GenerateQuiz(ctx, req)
	if s.interrupted() {
		s.logger.Info("quiz discarded, session ended during generation")
		return nil
	}
	if err != nil {
		s.telemetry.GenerationFailed()
		s.logger.Error("quiz generation failed", zap.Error(err))
		return s.appendMessage(ctx, model.RoleError, errorReply, model.TagNone)
	}
	quiz := QuizFromPayload(payload, time.Now())
	if quiz == nil {
		s.logger.Error("quiz payload malformed")
		return s.appendMessage(ctx, model.RoleError, errorReply, model.TagNone)
	}

	s.mu.Lock()
	s.activeQuiz = quiz
	s.mu.Unlock()

	var b strings.Builder
	b.WriteString(quiz.Question)
	b.WriteString("\n")
	for i, opt := range quiz.Options {
		fmt.Fprintf(&b, "%c) %s\n", 'A'+i, opt)
	}
	b.WriteString("Reply with a single letter A-D.")

	s.emit(Event{SessionID: s.id, Type: EventQuizStarted, Payload: quiz})
	s.telemetry.MessageProcessed()
	return s.appendMessage(ctx, model.RoleAssistant, b.String(), model.TagQuiz)
}

// handleQuizAnswer consumes the pending quiz: score against the stored
// correct index, emit the result message, update learner aggregates.
func (s *Session) handleQuizAnswer(ctx context.Context, quiz *model.ActiveQuiz, chosen int, raw string) (*model.ChatMessage, error) {
	s.appendMessage(ctx, model.RoleUser, strings.ToUpper(raw), model.TagQuizAnswer)

	correct := chosen == quiz.CorrectIndex

	s.mu.Lock()
	s.quizzesTaken++
	if correct {
		s.quizzesCorrect++
		s.pointsDelta += 10
	}
	s.mu.Unlock()

	result := model.QuizResult{
		ID:          uuid.New().String(),
		SessionID:   s.id,
		UserID:      s.userID,
		QuizID:      quiz.ID,
		ConceptID:   quiz.ConceptID,
		ChosenIndex: chosen,
		Correct:     correct,
		AnsweredAt:  time.Now(),
	}
	if err := s.store.RecordQuizResult(ctx, result); err != nil {
		s.logger.Warn("quiz result not recorded", zap.Error(err))
	}

	var text string
	if correct {
		text = fmt.Sprintf("Correct! %c) %s is right.", 'A'+quiz.CorrectIndex, quiz.Options[quiz.CorrectIndex])
	} else {
		text = fmt.Sprintf("Not quite. The correct answer was %c) %s.", 'A'+quiz.CorrectIndex, quiz.Options[quiz.CorrectIndex])
	}
	if quiz.Explanation != "" {
		text += " " + quiz.Explanation
	}

	s.emit(Event{SessionID: s.id, Type: EventQuizResult, Payload: result})
	return s.appendMessage(ctx, model.RoleAssistant, text, model.TagQuizResult), nil
}

// End transitions the session to Ended and emits the synthesized summary.
// If a generation is in flight the late reply is discarded after the
// transition. In-memory state is cleared after a fixed delay.
func (s *Session) End(ctx context.Context) (*model.SessionSummary, error) {
	s.mu.Lock()
	switch s.state {
	case StateActive, StateQuizPending, StateGenerating:
	default:
		s.mu.Unlock()
		return nil, ErrNotActive
	}
	s.state = StateEnded
	s.activeQuiz = nil

	summary := &model.SessionSummary{
		SessionID:      s.id,
		Duration:       time.Since(s.startedAt),
		MessagesSent:   s.userMsgCount,
		QuizzesTaken:   s.quizzesTaken,
		QuizzesCorrect: s.quizzesCorrect,
		PointsDelta:    s.pointsDelta,
	}
	s.mu.Unlock()

	summary.EngagementScore = engagementScore(summary)
	summary.Tier = model.RateEngagement(summary.EngagementScore)

	text := summaryText(summary)
	s.appendMessage(ctx, model.RoleSystem, text, model.TagSummary)
	s.emit(Event{SessionID: s.id, Type: EventSessionEnded, State: StateEnded, Payload: summary})

	time.AfterFunc(s.cfg.EndClearDelay, s.clear)
	return summary, nil
}

// interrupted reports whether an in-flight generation lost its claim on
// the session. That only happens when End runs mid-generation; the late
// reply is dropped rather than persisted after the summary.
func (s *Session) interrupted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != StateGenerating
}

// clear discards in-memory session state and returns to Idle.
func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory = nil
	s.facts = nil
	s.activeQuiz = nil
	s.state = StateIdle
}

// engagementScore blends participation volume with quiz accuracy. With no
// quizzes taken the quiz component sits at a neutral midpoint.
func engagementScore(sum *model.SessionSummary) float64 {
	participation := float64(sum.MessagesSent) / 10.0
	if participation > 1 {
		participation = 1
	}
	accuracy := 0.5
	if sum.QuizzesTaken > 0 {
		accuracy = float64(sum.QuizzesCorrect) / float64(sum.QuizzesTaken)
	}
	return 0.5*participation + 0.5*accuracy
}

func summaryText(sum *model.SessionSummary) string {
	minutes := int(sum.Duration.Minutes())
	var opener string
	switch sum.Tier {
	case model.TierOutstanding:
		opener = "Outstanding session!"
	case model.TierGreat:
		opener = "Great work today!"
	case model.TierGood:
		opener = "Good session!"
	default:
		opener = "Nice start, keep at it!"
	}
	return fmt.Sprintf("%s You studied for %d min, answered %d of %d quizzes correctly, and earned %d points.",
		opener, minutes, sum.QuizzesCorrect, sum.QuizzesTaken, sum.PointsDelta)
}

// appendMessage records a message in memory, persists it, and notifies
// listeners. Persistence failures are logged, never propagated to the
// learner.
func (s *Session) appendMessage(ctx context.Context, role model.MessageRole, text string, tag model.MessageTag) *model.ChatMessage {
	msg := model.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: s.id,
		Role:      role,
		Text:      text,
		Tag:       tag,
		Timestamp: time.Now(),
	}
	if role == model.RoleUser {
		msg.AuthorID = s.userID
	}

	s.mu.Lock()
	if s.memory != nil {
		s.memory.AddMessage(msg)
	}
	s.mu.Unlock()

	if err := s.store.AppendMessage(ctx, s.id, msg); err != nil {
		s.logger.Warn("message not persisted", zap.Error(err))
	}
	s.emit(Event{SessionID: s.id, Type: EventMessage, Message: &msg})
	return &msg
}

func (s *Session) emit(evt Event) {
	s.listener.OnEvent(evt)
}
