package engine

import (
	"fmt"
	"sort"
	"strings"

	"studyhall/internal/model"
)

// Memory is the bounded rolling store of one session's message history and
// derived statistics. All mutation happens on the single sequential
// session-processing path, so it carries no lock of its own.
type Memory struct {
	capacity       int
	analysisWindow int

	msgs      []model.ChatMessage
	topicFreq map[string]int
	analyses  []model.QueryAnalysis

	lastApproach model.LearningApproach
}

// NewMemory creates a memory store bounded to capacity messages and an
// analysis window of window entries.
func NewMemory(capacity, window int) *Memory {
	if capacity <= 0 {
		capacity = 100
	}
	if window <= 0 {
		window = 10
	}
	return &Memory{
		capacity:       capacity,
		analysisWindow: window,
		topicFreq:      make(map[string]int),
	}
}

// AddMessage appends a message, evicting the oldest on overflow.
func (m *Memory) AddMessage(msg model.ChatMessage) {
	m.msgs = append(m.msgs, msg)
	if len(m.msgs) > m.capacity {
		m.msgs = m.msgs[len(m.msgs)-m.capacity:]
	}
}

// UpdateFromAnalysis folds a new QueryAnalysis into the rolling statistics.
func (m *Memory) UpdateFromAnalysis(a model.QueryAnalysis) {
	for _, kw := range a.Keywords {
		m.topicFreq[kw]++
	}
	m.analyses = append(m.analyses, a)
	if len(m.analyses) > m.analysisWindow {
		m.analyses = m.analyses[len(m.analyses)-m.analysisWindow:]
	}
	m.lastApproach = a.Approach
}

// Size returns the number of retained messages.
func (m *Memory) Size() int {
	return len(m.msgs)
}

// Messages returns a snapshot copy of the full retained log.
func (m *Memory) Messages() []model.ChatMessage {
	out := make([]model.ChatMessage, len(m.msgs))
	copy(out, m.msgs)
	return out
}

// RecentMessages returns the last n messages in original order.
func (m *Memory) RecentMessages(n int) []model.ChatMessage {
	if n <= 0 || len(m.msgs) == 0 {
		return nil
	}
	if n > len(m.msgs) {
		n = len(m.msgs)
	}
	out := make([]model.ChatMessage, n)
	copy(out, m.msgs[len(m.msgs)-n:])
	return out
}

// DominantSubject returns the majority subject over the analysis window,
// most recent winning ties.
func (m *Memory) DominantSubject() model.Subject {
	counts := make(map[model.Subject]int)
	lastSeen := make(map[model.Subject]int)
	for i, a := range m.analyses {
		counts[a.Subject]++
		lastSeen[a.Subject] = i
	}
	best := model.SubjectGeneral
	bestCount, bestSeen := 0, -1
	for s, c := range counts {
		if c > bestCount || (c == bestCount && lastSeen[s] > bestSeen) {
			best, bestCount, bestSeen = s, c, lastSeen[s]
		}
	}
	return best
}

// DominantComplexity returns the majority complexity over the analysis
// window, most recent winning ties.
func (m *Memory) DominantComplexity() model.Complexity {
	counts := make(map[model.Complexity]int)
	lastSeen := make(map[model.Complexity]int)
	for i, a := range m.analyses {
		counts[a.Complexity]++
		lastSeen[a.Complexity] = i
	}
	best := model.ComplexityBasic
	bestCount, bestSeen := 0, -1
	for c, n := range counts {
		if n > bestCount || (n == bestCount && lastSeen[c] > bestSeen) {
			best, bestCount, bestSeen = c, n, lastSeen[c]
		}
	}
	return best
}

// LastApproach returns the learning approach of the most recent analysis.
func (m *Memory) LastApproach() model.LearningApproach {
	if m.lastApproach == "" {
		return model.ApproachDirect
	}
	return m.lastApproach
}

// TopTopics returns the n most frequent keywords, most frequent first.
func (m *Memory) TopTopics(n int) []string {
	type entry struct {
		topic string
		count int
	}
	entries := make([]entry, 0, len(m.topicFreq))
	for t, c := range m.topicFreq {
		entries = append(entries, entry{t, c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].topic < entries[j].topic
	})
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]string, 0, n)
	for _, e := range entries[:n] {
		out = append(out, e.topic)
	}
	return out
}

// ContextSummary produces the short digest handed to the search gateway.
func (m *Memory) ContextSummary() string {
	topics := m.TopTopics(3)
	summary := fmt.Sprintf("subject=%s complexity=%s", m.DominantSubject(), m.DominantComplexity())
	if len(topics) > 0 {
		summary += " topics=" + strings.Join(topics, ",")
	}
	return summary
}
