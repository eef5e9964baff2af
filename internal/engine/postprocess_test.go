package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"studyhall/internal/model"
)

func simpleAnalysis(intent model.Intent) model.QueryAnalysis {
	return model.QueryAnalysis{Intent: intent, ResponseLength: model.LengthSimple}
}

func TestShapePassesThroughNonSimpleTiers(t *testing.T) {
	p := NewPostProcessor(15, nil)
	long := strings.Repeat("many words here ", 20)
	for _, tier := range []model.ResponseLength{model.LengthMedium, model.LengthLonger} {
		a := model.QueryAnalysis{ResponseLength: tier}
		assert.Equal(t, long, p.Shape(long, a))
	}
}

func TestShapeStripsPadding(t *testing.T) {
	p := NewPostProcessor(15, nil)
	tests := []struct {
		in   string
		want string
	}{
		{"Sure! The answer is 4", "4"},
		{"Great question! 4. Hope this helps!", "4."},
		{"4. Let me know if you need anything else.", "4."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Shape(tt.in, simpleAnalysis(model.IntentConceptual)))
	}
}

func TestShapeConfirmatoryCollapsesToPolarity(t *testing.T) {
	p := NewPostProcessor(5, nil)
	a := simpleAnalysis(model.IntentConfirmatory)

	out := p.Shape("Yes, that statement is absolutely correct, the sun does indeed set in the west every day.", a)
	assert.Equal(t, "True", out)

	out = p.Shape("No, that is actually incorrect because the sun rises in the east and everyone knows it.", a)
	assert.Equal(t, "False", out)
}

func TestShapeConfirmatoryNegativeBeatsPositive(t *testing.T) {
	p := NewPostProcessor(5, nil)
	out := p.Shape("That is not true, despite sounding right to many people at first glance over the years.", simpleAnalysis(model.IntentConfirmatory))
	assert.Equal(t, "False", out)
}

func TestShapeFactualKeepsFirstSentence(t *testing.T) {
	p := NewPostProcessor(10, nil)
	in := "Well, William Shakespeare wrote Hamlet. He wrote it around 1600 during the Elizabethan era in England, which was a golden age for drama."
	out := p.Shape(in, simpleAnalysis(model.IntentFactual))
	assert.Equal(t, "William Shakespeare wrote Hamlet.", out)
}

// The compress-then-truncate invariant: simple output never exceeds the
// ceiling, whatever the generator produced.
func TestShapeNeverExceedsCeiling(t *testing.T) {
	const ceiling = 15
	p := NewPostProcessor(ceiling, nil)
	inputs := []string{
		"one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen",
		strings.Repeat("word ", 100),
		"short",
		"",
	}
	for _, intent := range []model.Intent{model.IntentFactual, model.IntentConfirmatory, model.IntentConceptual} {
		for _, in := range inputs {
			out := p.Shape(in, simpleAnalysis(intent))
			assert.LessOrEqual(t, len(strings.Fields(out)), ceiling, "intent=%s in=%q", intent, in)
		}
	}
}

func TestShapeShortAnswerUntouched(t *testing.T) {
	p := NewPostProcessor(15, nil)
	assert.Equal(t, "4", p.Shape("4", simpleAnalysis(model.IntentConceptual)))
}
