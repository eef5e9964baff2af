package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyhall/internal/model"
)

func userMsg(text string) model.ChatMessage {
	return model.ChatMessage{
		ID:        text,
		Role:      model.RoleUser,
		Text:      text,
		Timestamp: time.Now(),
	}
}

func TestMemoryEvictsOldestFirst(t *testing.T) {
	m := NewMemory(3, 10)
	for i := 1; i <= 5; i++ {
		m.AddMessage(userMsg(fmt.Sprintf("msg-%d", i)))
	}

	require.Equal(t, 3, m.Size())
	msgs := m.Messages()
	assert.Equal(t, "msg-3", msgs[0].Text)
	assert.Equal(t, "msg-4", msgs[1].Text)
	assert.Equal(t, "msg-5", msgs[2].Text)
}

func TestMemoryCapacityInvariant(t *testing.T) {
	const capacity = 10
	m := NewMemory(capacity, 10)
	for i := 0; i < capacity+25; i++ {
		m.AddMessage(userMsg(fmt.Sprintf("m%d", i)))
		assert.LessOrEqual(t, m.Size(), capacity)
	}
	assert.Equal(t, capacity, m.Size())
}

func TestRecentMessagesOriginalOrder(t *testing.T) {
	m := NewMemory(10, 10)
	for i := 1; i <= 6; i++ {
		m.AddMessage(userMsg(fmt.Sprintf("m%d", i)))
	}
	recent := m.RecentMessages(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "m5", recent[0].Text)
	assert.Equal(t, "m6", recent[1].Text)

	assert.Len(t, m.RecentMessages(100), 6)
	assert.Nil(t, m.RecentMessages(0))
}

func TestDominantSubjectMajorityVote(t *testing.T) {
	m := NewMemory(10, 10)
	m.UpdateFromAnalysis(model.QueryAnalysis{Subject: model.SubjectScience})
	m.UpdateFromAnalysis(model.QueryAnalysis{Subject: model.SubjectMathematics})
	m.UpdateFromAnalysis(model.QueryAnalysis{Subject: model.SubjectScience})
	assert.Equal(t, model.SubjectScience, m.DominantSubject())
}

func TestDominantSubjectTieGoesToMostRecent(t *testing.T) {
	m := NewMemory(10, 10)
	m.UpdateFromAnalysis(model.QueryAnalysis{Subject: model.SubjectScience})
	m.UpdateFromAnalysis(model.QueryAnalysis{Subject: model.SubjectHistory})
	assert.Equal(t, model.SubjectHistory, m.DominantSubject())
}

func TestAnalysisWindowIsBounded(t *testing.T) {
	m := NewMemory(10, 3)
	for i := 0; i < 5; i++ {
		m.UpdateFromAnalysis(model.QueryAnalysis{Subject: model.SubjectHistory})
	}
	// Three newer science entries must fully displace the history window.
	for i := 0; i < 3; i++ {
		m.UpdateFromAnalysis(model.QueryAnalysis{Subject: model.SubjectScience})
	}
	assert.Equal(t, model.SubjectScience, m.DominantSubject())
}

func TestTopTopicsAndContextSummary(t *testing.T) {
	m := NewMemory(10, 10)
	m.UpdateFromAnalysis(model.QueryAnalysis{
		Subject:    model.SubjectScience,
		Complexity: model.ComplexityBasic,
		Keywords:   []string{"gravity", "mass"},
	})
	m.UpdateFromAnalysis(model.QueryAnalysis{
		Subject:    model.SubjectScience,
		Complexity: model.ComplexityBasic,
		Keywords:   []string{"gravity"},
	})

	topics := m.TopTopics(2)
	require.NotEmpty(t, topics)
	assert.Equal(t, "gravity", topics[0])

	summary := m.ContextSummary()
	assert.Contains(t, summary, "science")
	assert.Contains(t, summary, "gravity")
}

func TestLastApproachDefaultsToDirect(t *testing.T) {
	m := NewMemory(10, 10)
	assert.Equal(t, model.ApproachDirect, m.LastApproach())
	m.UpdateFromAnalysis(model.QueryAnalysis{Approach: model.ApproachSocratic})
	assert.Equal(t, model.ApproachSocratic, m.LastApproach())
}
