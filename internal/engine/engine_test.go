package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyhall/internal/config"
	"studyhall/internal/model"
)

type fakeStore struct {
	mu          sync.Mutex
	messages    map[string][]model.ChatMessage
	carryover   []model.ChatMessage
	quizResults []model.QuizResult
	loadErr     error
	loadBlock   chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{messages: make(map[string][]model.ChatMessage)}
}

func (f *fakeStore) LoadSessionMessages(_ context.Context, sessionID string) ([]model.ChatMessage, error) {
	if f.loadBlock != nil {
		<-f.loadBlock
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.messages[sessionID], nil
}

func (f *fakeStore) AppendMessage(_ context.Context, sessionID string, msg model.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[sessionID] = append(f.messages[sessionID], msg)
	return nil
}

func (f *fakeStore) LoadCrossSessionMessages(_ context.Context, _ string, _ int) ([]model.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.carryover, nil
}

func (f *fakeStore) GetUserProfile(_ context.Context, _ string) (*model.UserProfile, error) {
	return nil, nil
}

func (f *fakeStore) RecordQuizResult(_ context.Context, res model.QuizResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quizResults = append(f.quizResults, res)
	return nil
}

func (f *fakeStore) count(sessionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages[sessionID])
}

func (f *fakeStore) get(sessionID string) []model.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ChatMessage(nil), f.messages[sessionID]...)
}

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	quiz    *model.QuizPayload
	err     error
	prompts []*PromptRequest
	block   chan struct{}
}

func (g *fakeGenerator) Generate(_ context.Context, req *PromptRequest) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, req)
	block, reply, err := g.block, g.reply, g.err
	g.mu.Unlock()
	if block != nil {
		<-block
	}
	return reply, err
}

func (g *fakeGenerator) GenerateQuiz(_ context.Context, req *PromptRequest) (*model.QuizPayload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, req)
	if g.err != nil {
		return nil, g.err
	}
	return g.quiz, nil
}

func (g *fakeGenerator) lastPrompt() *PromptRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return nil
	}
	return g.prompts[len(g.prompts)-1]
}

type recordingListener struct {
	mu     sync.Mutex
	events []Event
}

func (l *recordingListener) OnEvent(evt Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evt)
}

func (l *recordingListener) types() []EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventType, len(l.events))
	for i, e := range l.events {
		out[i] = e.Type
	}
	return out
}

func testConfig() *config.EngineConfig {
	cfg := config.DefaultEngineConfig()
	cfg.EndClearDelay = 10 * time.Millisecond
	return cfg
}

func newTestSession(t *testing.T, gen *fakeGenerator, store *fakeStore) *Session {
	t.Helper()
	return NewSession(Options{
		SessionID: "sess-1",
		UserID:    "user-1",
		Subject:   "science",
		Config:    testConfig(),
		Generator: gen,
		Store:     store,
	})
}

func startedSession(t *testing.T, gen *fakeGenerator, store *fakeStore) *Session {
	t.Helper()
	s := newTestSession(t, gen, store)
	require.NoError(t, s.Start(context.Background()))
	return s
}

func TestStartTransitionsToActive(t *testing.T) {
	store := newFakeStore()
	s := startedSession(t, &fakeGenerator{}, store)

	assert.Equal(t, StateActive, s.State())
	// Empty transcript gets one system greeting.
	require.Equal(t, 1, store.count("sess-1"))
	assert.Equal(t, model.RoleSystem, store.get("sess-1")[0].Role)
}

func TestStartFailureReturnsToIdle(t *testing.T) {
	store := newFakeStore()
	store.loadErr = errors.New("mongo down")
	s := newTestSession(t, &fakeGenerator{}, store)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateIdle, s.State())
	assert.Error(t, s.StartErr())

	// A later retry succeeds once the store recovers.
	store.mu.Lock()
	store.loadErr = nil
	store.mu.Unlock()
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateActive, s.State())
}

func TestStartWhileStartingRejected(t *testing.T) {
	store := newFakeStore()
	store.loadBlock = make(chan struct{})
	s := newTestSession(t, &fakeGenerator{}, store)

	done := make(chan error, 1)
	go func() {
		done <- s.Start(context.Background())
	}()
	require.Eventually(t, func() bool {
		return s.State() == StateStarting
	}, time.Second, time.Millisecond)

	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)

	close(store.loadBlock)
	require.NoError(t, <-done)
	assert.Equal(t, StateActive, s.State())
}

func TestStartFromActiveRejected(t *testing.T) {
	s := startedSession(t, &fakeGenerator{}, newFakeStore())
	assert.ErrorIs(t, s.Start(context.Background()), ErrNotActive)
}

func TestSendMessageProducesReply(t *testing.T) {
	gen := &fakeGenerator{reply: "Gravity pulls masses together across space and time in proportion to their mass."}
	s := startedSession(t, gen, newFakeStore())

	reply, err := s.SendMessage(context.Background(), "explain the physics of gravity for me")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, model.RoleAssistant, reply.Role)
	assert.Equal(t, StateActive, s.State())
}

func TestArithmeticFastPathShapedReply(t *testing.T) {
	gen := &fakeGenerator{reply: "The answer is 4"}
	s := startedSession(t, gen, newFakeStore())

	reply, err := s.SendMessage(context.Background(), "2+2=?")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Contains(t, reply.Text, "4")
	assert.LessOrEqual(t, len(strings.Fields(reply.Text)), 15)
	require.NotNil(t, gen.lastPrompt())
	assert.True(t, gen.lastPrompt().FastPath)
}

func TestConfirmatoryCollapse(t *testing.T) {
	gen := &fakeGenerator{reply: "Yes, that is correct, the sun does indeed set in the west every single day as everyone can observe."}
	s := startedSession(t, gen, newFakeStore())

	reply, err := s.SendMessage(context.Background(), "The sun sets in the west")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "True", reply.Text)
}

func TestDuplicateSendDroppedSilently(t *testing.T) {
	gen := &fakeGenerator{reply: "Gravity is the attraction between masses."}
	store := newFakeStore()
	s := startedSession(t, gen, store)

	first, err := s.SendMessage(context.Background(), "Explain gravity")
	require.NoError(t, err)
	require.NotNil(t, first)
	countAfterFirst := store.count("sess-1")

	second, err := s.SendMessage(context.Background(), "Explain gravity")
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Equal(t, countAfterFirst, store.count("sess-1"))
}

func TestQuizDetectedFromGeneratedText(t *testing.T) {
	gen := &fakeGenerator{reply: quizText}
	s := startedSession(t, gen, newFakeStore())

	reply, err := s.SendMessage(context.Background(), "could you write a multiple choice question about planets")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, model.TagQuiz, reply.Tag)
	require.NotNil(t, s.ActiveQuiz())
	assert.Equal(t, 1, s.ActiveQuiz().CorrectIndex)
	assert.Equal(t, StateQuizPending, s.State())
}

func TestQuizAnswerRouting(t *testing.T) {
	gen := &fakeGenerator{reply: quizText}
	store := newFakeStore()
	s := startedSession(t, gen, store)

	_, err := s.SendMessage(context.Background(), "could you write a multiple choice question about planets")
	require.NoError(t, err)
	require.NotNil(t, s.ActiveQuiz())

	reply, err := s.SendMessage(context.Background(), "b")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, model.TagQuizResult, reply.Tag)
	assert.Contains(t, reply.Text, "Correct")

	// The quiz is consumed immediately after a valid answer.
	assert.Nil(t, s.ActiveQuiz())
	assert.Equal(t, StateActive, s.State())

	require.Len(t, store.quizResults, 1)
	assert.True(t, store.quizResults[0].Correct)
	assert.Equal(t, 1, store.quizResults[0].ChosenIndex)
}

func TestWrongQuizAnswer(t *testing.T) {
	gen := &fakeGenerator{reply: quizText}
	store := newFakeStore()
	s := startedSession(t, gen, store)

	_, err := s.SendMessage(context.Background(), "could you write a multiple choice question about planets")
	require.NoError(t, err)

	reply, err := s.SendMessage(context.Background(), "D")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Contains(t, reply.Text, "Not quite")
	require.Len(t, store.quizResults, 1)
	assert.False(t, store.quizResults[0].Correct)
}

func TestNonAnswerClearsStaleQuiz(t *testing.T) {
	gen := &fakeGenerator{reply: quizText}
	s := startedSession(t, gen, newFakeStore())

	_, err := s.SendMessage(context.Background(), "could you write a multiple choice question about planets")
	require.NoError(t, err)
	require.NotNil(t, s.ActiveQuiz())

	gen.mu.Lock()
	gen.reply = "Gravity bends spacetime around massive objects in ways we can measure."
	gen.mu.Unlock()

	_, err = s.SendMessage(context.Background(), "actually explain the physics of gravity instead")
	require.NoError(t, err)
	assert.Nil(t, s.ActiveQuiz())
	assert.Equal(t, StateActive, s.State())
}

func TestStructuredQuizGeneration(t *testing.T) {
	gen := &fakeGenerator{quiz: &model.QuizPayload{
		Question:     "What is 1/2 + 1/4?",
		Options:      []string{"1/6", "3/4", "2/4", "1/8"},
		CorrectIndex: 1,
		Explanation:  "Convert to quarters first.",
	}}
	s := startedSession(t, gen, newFakeStore())

	reply, err := s.SendMessage(context.Background(), "quiz me on fractions")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, model.TagQuiz, reply.Tag)
	assert.Contains(t, reply.Text, "A) 1/6")
	assert.Contains(t, reply.Text, "D) 1/8")
	require.NotNil(t, s.ActiveQuiz())
	assert.Equal(t, 1, s.ActiveQuiz().CorrectIndex)
}

func TestGenerationFailureKeepsSessionActive(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	s := startedSession(t, gen, newFakeStore())

	reply, err := s.SendMessage(context.Background(), "explain the physics of gravity for me")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, model.RoleError, reply.Role)
	assert.Equal(t, StateActive, s.State())

	// The session keeps working after the transient failure.
	gen.mu.Lock()
	gen.err = nil
	gen.reply = "Gravity is mass attracting mass."
	gen.mu.Unlock()
	reply, err = s.SendMessage(context.Background(), "explain gravity once more in different words")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, model.RoleAssistant, reply.Role)
}

func TestSendWhileGeneratingRejected(t *testing.T) {
	gen := &fakeGenerator{reply: "slow reply text", block: make(chan struct{})}
	s := startedSession(t, gen, newFakeStore())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.SendMessage(context.Background(), "explain the physics of gravity for me")
	}()

	require.Eventually(t, func() bool {
		return s.State() == StateGenerating
	}, time.Second, time.Millisecond)

	_, err := s.SendMessage(context.Background(), "another question about something else")
	assert.ErrorIs(t, err, ErrBusy)

	close(gen.block)
	<-done
	assert.Equal(t, StateActive, s.State())
}

func TestRecallQueryDoesNotMatchItself(t *testing.T) {
	gen := &fakeGenerator{reply: "You haven't told me a favorite subject yet."}
	s := startedSession(t, gen, newFakeStore())

	// Nothing earlier in the session mentions a favorite subject, so the
	// recall query must not surface itself as relevant context.
	_, err := s.SendMessage(context.Background(), "What's my favorite subject?")
	require.NoError(t, err)
	req := gen.lastPrompt()
	require.NotNil(t, req)
	assert.NotContains(t, req.Prompt, "Possibly relevant earlier messages")
	assert.NotContains(t, req.Prompt, "- [user] What's my favorite subject?")
}

func TestRecallRetrievesOnlyPriorMentions(t *testing.T) {
	gen := &fakeGenerator{reply: "You told me astronomy."}
	s := startedSession(t, gen, newFakeStore())

	_, err := s.SendMessage(context.Background(), "my favorite subject is astronomy")
	require.NoError(t, err)
	_, err = s.SendMessage(context.Background(), "do you remember my favorite subject?")
	require.NoError(t, err)

	req := gen.lastPrompt()
	require.NotNil(t, req)
	assert.Contains(t, req.Prompt, "Possibly relevant earlier messages")
	assert.Contains(t, req.Prompt, "- [user] my favorite subject is astronomy")
	assert.NotContains(t, req.Prompt, "- [user] do you remember my favorite subject?")
}

func TestEndDuringGenerationDiscardsReply(t *testing.T) {
	gen := &fakeGenerator{reply: "A late answer that must never land.", block: make(chan struct{})}
	store := newFakeStore()
	s := startedSession(t, gen, store)

	var (
		reply   *model.ChatMessage
		sendErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		reply, sendErr = s.SendMessage(context.Background(), "explain the physics of gravity for me")
	}()
	require.Eventually(t, func() bool {
		return s.State() == StateGenerating
	}, time.Second, time.Millisecond)

	_, err := s.End(context.Background())
	require.NoError(t, err)

	close(gen.block)
	<-done
	require.NoError(t, sendErr)
	assert.Nil(t, reply)

	// The transcript ends with the summary; the late reply is not
	// persisted behind it.
	msgs := store.get("sess-1")
	require.NotEmpty(t, msgs)
	assert.Equal(t, model.TagSummary, msgs[len(msgs)-1].Tag)
	for _, m := range msgs {
		assert.NotEqual(t, model.RoleAssistant, m.Role)
	}
}

func TestEndSessionSummary(t *testing.T) {
	gen := &fakeGenerator{reply: quizText}
	store := newFakeStore()
	s := startedSession(t, gen, store)

	_, err := s.SendMessage(context.Background(), "could you write a multiple choice question about planets")
	require.NoError(t, err)
	_, err = s.SendMessage(context.Background(), "B")
	require.NoError(t, err)

	summary, err := s.End(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.QuizzesTaken)
	assert.Equal(t, 1, summary.QuizzesCorrect)
	assert.Greater(t, summary.PointsDelta, 0)
	assert.NotEmpty(t, summary.Tier)
	assert.Equal(t, StateEnded, s.State())

	_, err = s.SendMessage(context.Background(), "one more question")
	assert.ErrorIs(t, err, ErrNotActive)

	// In-memory state clears back to Idle after the delay.
	require.Eventually(t, func() bool {
		return s.State() == StateIdle
	}, time.Second, 5*time.Millisecond)
}

func TestEndFromEndedRejected(t *testing.T) {
	s := startedSession(t, &fakeGenerator{reply: "x"}, newFakeStore())
	_, err := s.End(context.Background())
	require.NoError(t, err)
	_, err = s.End(context.Background())
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestListenerReceivesEvents(t *testing.T) {
	listener := &recordingListener{}
	gen := &fakeGenerator{reply: "Gravity attracts mass."}
	s := NewSession(Options{
		SessionID: "sess-ev",
		UserID:    "user-1",
		Subject:   "science",
		Config:    testConfig(),
		Generator: gen,
		Store:     newFakeStore(),
		Listener:  listener,
	})
	require.NoError(t, s.Start(context.Background()))
	_, err := s.SendMessage(context.Background(), "explain the physics of gravity for me")
	require.NoError(t, err)

	types := listener.types()
	assert.Contains(t, types, EventSessionStarted)
	assert.Contains(t, types, EventStateChanged)
	assert.Contains(t, types, EventMessage)
}

func TestCarryoverReachesPrompt(t *testing.T) {
	store := newFakeStore()
	store.carryover = []model.ChatMessage{
		{Role: model.RoleUser, Text: "last week we studied photosynthesis", Timestamp: time.Now().Add(-72 * time.Hour)},
	}
	gen := &fakeGenerator{reply: "Sure, picking up from photosynthesis."}
	s := startedSession(t, gen, store)

	_, err := s.SendMessage(context.Background(), "continue from where we left off last session")
	require.NoError(t, err)
	require.NotNil(t, gen.lastPrompt())
	assert.Contains(t, gen.lastPrompt().Prompt, "last week we studied photosynthesis")
}
