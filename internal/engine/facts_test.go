package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyhall/internal/model"
)

func TestExtractSelfIntroduction(t *testing.T) {
	f := NewFactExtractor(10)
	added := f.ExtractFrom(userMsg("Hi, my name is Ada Lovelace and I love math"))
	require.NotEmpty(t, added)
	assert.Equal(t, "The learner's name is Ada Lovelace", added[0].Text)
	assert.Equal(t, "self-introduction", added[0].Pattern)
}

func TestExtractSubjectOfStudy(t *testing.T) {
	f := NewFactExtractor(10)
	added := f.ExtractFrom(userMsg("I am studying organic chemistry this semester."))
	require.NotEmpty(t, added)
	assert.Contains(t, added[0].Text, "studying organic chemistry")
}

func TestExtractInstitution(t *testing.T) {
	f := NewFactExtractor(10)
	added := f.ExtractFrom(userMsg("I go to Riverside Community College"))
	require.NotEmpty(t, added)
	assert.Contains(t, added[0].Text, "Riverside Community College")
}

func TestExtractNumericEquality(t *testing.T) {
	f := NewFactExtractor(10)
	added := f.ExtractFrom(userMsg("my target score equals 95"))
	require.NotEmpty(t, added)
	assert.Contains(t, added[0].Text, "equals 95")
}

func TestExtractAssertion(t *testing.T) {
	f := NewFactExtractor(10)
	added := f.ExtractFrom(userMsg("my favorite subject is astronomy."))
	require.NotEmpty(t, added)
	assert.Contains(t, added[0].Text, "my favorite subject is astronomy")
}

func TestAssistantMessagesAreIgnored(t *testing.T) {
	f := NewFactExtractor(10)
	msg := model.ChatMessage{Role: model.RoleAssistant, Text: "my name is Tutorbot"}
	assert.Empty(t, f.ExtractFrom(msg))
	assert.Empty(t, f.Facts())
}

func TestExcludedPhrasesFiltered(t *testing.T) {
	f := NewFactExtractor(10)
	f.ExtractFrom(userMsg("what is my best option here"))
	for _, fact := range f.Facts() {
		assert.NotContains(t, fact.Text, "what is")
	}
}

func TestFactsDeduplicated(t *testing.T) {
	f := NewFactExtractor(10)
	f.ExtractFrom(userMsg("my favorite color is blue"))
	f.ExtractFrom(userMsg("my favorite color is blue"))
	assert.Len(t, f.Facts(), 1)
}

func TestFactsCappedMostRecentFirst(t *testing.T) {
	f := NewFactExtractor(3)
	for i := 1; i <= 5; i++ {
		msg := userMsg(fmt.Sprintf("my lucky number equals %d", i))
		msg.Timestamp = time.Now().Add(time.Duration(i) * time.Second)
		f.ExtractFrom(msg)
	}
	facts := f.Facts()
	require.Len(t, facts, 3)
	assert.Contains(t, facts[0].Text, "equals 5")
	assert.Contains(t, facts[2].Text, "equals 3")
}

// A message that matches no pattern is skipped without error.
func TestNoMatchIsNoOp(t *testing.T) {
	f := NewFactExtractor(10)
	assert.Empty(t, f.ExtractFrom(userMsg("ok")))
	assert.Empty(t, f.ExtractFrom(userMsg("")))
}
