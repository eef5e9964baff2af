package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyhall/internal/model"
)

const quizText = `Which planet is closest to the sun?
A) Venus
B) Mercury
C) Mars
D) Earth
Correct answer: B`

func TestContainsQuizMarkers(t *testing.T) {
	assert.True(t, ContainsQuizMarkers(quizText))
	assert.False(t, ContainsQuizMarkers("A) yes B) no"))
	assert.False(t, ContainsQuizMarkers("plain reply with no options"))
}

func TestIsQuizAnswer(t *testing.T) {
	tests := []struct {
		in    string
		index int
		ok    bool
	}{
		{"a", 0, true},
		{"B", 1, true},
		{" c ", 2, true},
		{"D", 3, true},
		{"e", 0, false},
		{"ab", 0, false},
		{"A) Venus", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		idx, ok := IsQuizAnswer(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if ok {
			assert.Equal(t, tt.index, idx, tt.in)
		}
	}
}

func TestParseQuizText(t *testing.T) {
	quiz := ParseQuizText(quizText, time.Now())
	require.NotNil(t, quiz)
	assert.Equal(t, "Which planet is closest to the sun?", quiz.Question)
	assert.Equal(t, []string{"Venus", "Mercury", "Mars", "Earth"}, quiz.Options)
	assert.Equal(t, 1, quiz.CorrectIndex)
}

func TestParseQuizTextRequiresAnswerLine(t *testing.T) {
	noAnswer := "Pick one:\nA) x\nB) y\nC) z\nD) w"
	assert.Nil(t, ParseQuizText(noAnswer, time.Now()))
}

func TestParseQuizTextRequiresAllMarkers(t *testing.T) {
	assert.Nil(t, ParseQuizText("A) x\nB) y\nC) z\nAnswer: A", time.Now()))
}

func TestQuizFromPayload(t *testing.T) {
	p := &model.QuizPayload{
		Question:     "What is 7*8?",
		Options:      []string{"54", "56", "58", "64"},
		CorrectIndex: 1,
		Explanation:  "7*8 = 56.",
	}
	quiz := QuizFromPayload(p, time.Now())
	require.NotNil(t, quiz)
	assert.Equal(t, 1, quiz.CorrectIndex)
	assert.NotEmpty(t, quiz.ID)
}

func TestQuizFromPayloadRejectsMalformed(t *testing.T) {
	assert.Nil(t, QuizFromPayload(nil, time.Now()))
	assert.Nil(t, QuizFromPayload(&model.QuizPayload{Options: []string{"a", "b"}}, time.Now()))
	assert.Nil(t, QuizFromPayload(&model.QuizPayload{
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: 7,
	}, time.Now()))
}
