// Package policy defines the persisted state for one project's command
// advisor and provides the load/migrate/save-atomic store contract.
package policy

import "time"

// CurrentSchemaVersion is stamped into LearningMetadata.Version on every
// successful save. Any other value on load is treated as an instruction to
// upgrade in place.
const CurrentSchemaVersion = "2.0"

// Policy is the full persisted state for one project.
type Policy struct {
	StaticMappings      map[string]string  `toml:"commands"`
	SemanticDirectories map[string]string  `toml:"semantic_directories"`
	DirectoryVariables  map[string]string  `toml:"directory_variables"`
	Learned             LearnedTiers       `toml:"learned"`
	NeverSuggest        map[string]string  `toml:"never_suggest"`
	ConfidenceOverrides map[string]float64 `toml:"confidence_overrides"`
	ExecutionHistory    ExecutionHistory   `toml:"execution_history"`
	LearningMetadata    LearningMetadata   `toml:"learning_meta"`
	FeatureFlags        map[string]bool    `toml:"features"`

	// Extra holds every top-level table this type does not model, captured
	// on Load and re-emitted on SaveAtomic so hand-added user extensions
	// survive a load/save round trip untouched (spec.md §6's forward-
	// compatibility rule). It is populated and consumed by the store, never
	// by toml itself.
	Extra map[string]any `toml:"-"`
}

// LearnedTiers groups the three learned-mapping scopes.
type LearnedTiers struct {
	Global  map[string]LearnedMapping            `toml:"global"`
	Project map[string]LearnedMapping            `toml:"project"`
	Context map[string]map[string]LearnedMapping `toml:"context"`
}

// LearnedMapping is one learned command-replacement entry.
type LearnedMapping struct {
	Replacement string    `toml:"replacement"`
	Confidence  float64   `toml:"confidence"`
	LearnedAt   time.Time `toml:"learned_at"`
	LearnedFrom string    `toml:"learned_from"`
	UsageCount  int       `toml:"usage_count"`
	Context     string    `toml:"context,omitempty"`
}

// Confidence bounds, per spec: never below the floor, never above 1.0.
const (
	MinConfidence = 0.10
	MaxConfidence = 1.00
)

// ClampConfidence enforces the [MinConfidence, MaxConfidence] bound.
func ClampConfidence(c float64) float64 {
	if c < MinConfidence {
		return MinConfidence
	}
	if c > MaxConfidence {
		return MaxConfidence
	}
	return c
}

// LearningMetadata tracks cumulative learning counters and schema version.
type LearningMetadata struct {
	LastUpdated          time.Time `toml:"last_updated"`
	TotalMappingsLearned int       `toml:"total_mappings_learned"`
	SessionMappings      int       `toml:"session_mappings"`
	UserCorrections      int       `toml:"user_corrections"`
	Version              string    `toml:"version"`
}

// ExecutionHistory is the outcome analyzer's working set.
type ExecutionHistory struct {
	CommandExecutions   []CommandExecution            `toml:"command_executions"`
	SuggestionStats     map[string]SuggestionStat     `toml:"suggestion_stats"`
	MappingCorrelations map[string]MappingCorrelation `toml:"mapping_correlations"`
	UserOverrides       []UserOverride                `toml:"user_overrides"`
	LastHousekeeping    time.Time                     `toml:"last_housekeeping,omitempty"`
}

// MaxCommandExecutions bounds the command_executions ring buffer.
const MaxCommandExecutions = 1000

// CommandExecution records one post-tool-execution event.
type CommandExecution struct {
	Command          string    `toml:"command"`
	WasSuggested     bool      `toml:"was_suggested"`
	OriginalCommand  string    `toml:"original_command,omitempty"`
	ExitStatus       *int      `toml:"exit_status,omitempty"`
	Success          bool      `toml:"success"`
	DurationMS       *int64    `toml:"duration_ms,omitempty"`
	Timestamp        time.Time `toml:"timestamp"`
	SuggestionSource string    `toml:"suggestion_source,omitempty"`
	SessionID        string    `toml:"session_id,omitempty"`
}

// SuggestionStat tracks outcomes for one "original→replacement" pair.
type SuggestionStat struct {
	TimesSuggested  int       `toml:"times_suggested"`
	TimesAccepted   int       `toml:"times_accepted"`
	TimesSuccessful int       `toml:"times_successful"`
	TimesRejected   int       `toml:"times_rejected"`
	Effectiveness   float64   `toml:"effectiveness"`
	LastUpdated     time.Time `toml:"last_updated"`
}

// Recompute refreshes Effectiveness from TimesSuccessful/TimesAccepted.
func (s *SuggestionStat) Recompute() {
	denom := s.TimesAccepted
	if denom < 1 {
		denom = 1
	}
	s.Effectiveness = float64(s.TimesSuccessful) / float64(denom)
}

// MappingCorrelation tracks per-original-pattern execution correlation.
type MappingCorrelation struct {
	TotalExecutions      int       `toml:"total_executions"`
	SuccessfulExecutions int       `toml:"successful_executions"`
	SuccessRate          float64   `toml:"success_rate"`
	ConfidenceAdjustment float64   `toml:"confidence_adjustment"`
	LastCalculated       time.Time `toml:"last_calculated"`
}

// UserOverride records a best-effort detected user correction.
type UserOverride struct {
	Original    string    `toml:"original"`
	Replacement string    `toml:"replacement"`
	Timestamp   time.Time `toml:"timestamp"`
	SessionID   string    `toml:"session_id,omitempty"`
}

// SuggestionKey builds the "{original}→{replacement}" stats key.
func SuggestionKey(original, replacement string) string {
	return original + "→" + replacement
}
