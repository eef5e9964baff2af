package config

import (
	"os"
	"strconv"
	"time"
)

// EngineConfig holds the dialogue-engine tunables. The token ceiling and
// compression behavior of the simple tier are deliberately configuration,
// not literals.
type EngineConfig struct {
	// MemoryCapacity bounds the rolling message log per session
	MemoryCapacity int

	// AnalysisWindow bounds the rolling QueryAnalysis history
	AnalysisWindow int

	// FactCapacity bounds retained extracted facts per session
	FactCapacity int

	// RetrievalLimit is the top-N cutoff for relevance retrieval
	RetrievalLimit int

	// HistoryWindow bounds the conversation history included in prompts
	HistoryWindow int

	// SimpleTokenCeiling is the hard whitespace-token budget for the
	// "simple" response tier
	SimpleTokenCeiling int

	// DedupeWindow suppresses identical resubmissions inside this interval
	DedupeWindow time.Duration

	// EndClearDelay is how long ended-session state stays readable before
	// it is discarded
	EndClearDelay time.Duration

	// CarryoverDays bounds cross-session history loading
	CarryoverDays int
}

// DefaultEngineConfig returns engine defaults with env overrides applied
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		MemoryCapacity:     getEnvInt("ENGINE_MEMORY_CAPACITY", 100),
		AnalysisWindow:     getEnvInt("ENGINE_ANALYSIS_WINDOW", 10),
		FactCapacity:       getEnvInt("ENGINE_FACT_CAPACITY", 10),
		RetrievalLimit:     getEnvInt("ENGINE_RETRIEVAL_LIMIT", 5),
		HistoryWindow:      getEnvInt("ENGINE_HISTORY_WINDOW", 20),
		SimpleTokenCeiling: getEnvInt("ENGINE_SIMPLE_TOKEN_CEILING", 15),
		DedupeWindow:       2 * time.Second,
		EndClearDelay:      30 * time.Second,
		CarryoverDays:      getEnvInt("ENGINE_CARRYOVER_DAYS", 7),
	}
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}
