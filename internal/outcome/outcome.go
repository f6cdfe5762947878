// Package outcome implements the execution-outcome analyzer: it
// correlates post-execution commands with prior suggestions, updates
// confidence and effectiveness statistics, and promotes persistently
// harmful mappings to the never-suggest tier.
package outcome

import (
	"sort"
	"strings"
	"time"

	"github.com/sirmews/claude-hook-advisor/internal/mapping"
	"github.com/sirmews/claude-hook-advisor/internal/policy"
)

// Execution is one post-tool-execution event to analyze.
type Execution struct {
	Command   string
	ExitCode  *int // nil means the host omitted it; treated as success (spec §4.6, open question)
	Duration  *time.Duration
	Source    string // suggestion source tag, e.g. a mapping.Source value, if known
	SessionID string
	Now       time.Time
}

func (e Execution) success() bool {
	return e.ExitCode == nil || *e.ExitCode == 0
}

// candidateMapping is a flattened (original, replacement, tier) triple
// drawn from every tier, used for correlation search.
type candidateMapping struct {
	original    string
	replacement string
	source      mapping.Source
	context     string // non-empty only when source == mapping.SourceContext
}

// candidates flattens every tier's mappings, in project -> context ->
// global -> static order, matching the priority order of §4.4.
func candidates(p *policy.Policy) []candidateMapping {
	var out []candidateMapping

	appendTier := func(source mapping.Source, ctxName string, tier map[string]policy.LearnedMapping) {
		keys := make([]string, 0, len(tier))
		for k := range tier {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, candidateMapping{original: k, replacement: tier[k].Replacement, source: source, context: ctxName})
		}
	}

	appendTier(mapping.SourceProject, "", p.Learned.Project)

	ctxNames := make([]string, 0, len(p.Learned.Context))
	for name := range p.Learned.Context {
		ctxNames = append(ctxNames, name)
	}
	sort.Strings(ctxNames)
	for _, name := range ctxNames {
		appendTier(mapping.SourceContext, name, p.Learned.Context[name])
	}

	appendTier(mapping.SourceGlobal, "", p.Learned.Global)

	staticKeys := make([]string, 0, len(p.StaticMappings))
	for k := range p.StaticMappings {
		staticKeys = append(staticKeys, k)
	}
	sort.Strings(staticKeys)
	for _, k := range staticKeys {
		out = append(out, candidateMapping{original: k, replacement: p.StaticMappings[k], source: mapping.SourceStatic})
	}

	return out
}

// correlate finds the first candidate mapping whose replacement appears in
// cmd and whose reversed substitution differs non-trivially from cmd.
func correlate(p *policy.Policy, cmd string) (candidateMapping, bool) {
	for _, c := range candidates(p) {
		if c.replacement == "" || !strings.Contains(cmd, c.replacement) {
			continue
		}
		reconstructed := strings.Replace(cmd, c.replacement, c.original, 1)
		if reconstructed == cmd {
			continue
		}
		return c, true
	}
	return candidateMapping{}, false
}

// Analyze correlates exec against known suggestions and updates p in
// place. It never returns an error: outcome analysis is entirely silent
// and must never block a post-tool event (spec §4.6, §7).
func Analyze(p *policy.Policy, exec Execution) {
	h := &p.ExecutionHistory

	c, matched := correlate(p, exec.Command)

	entry := policy.CommandExecution{
		Command:      exec.Command,
		WasSuggested: matched,
		Success:      exec.success(),
		Timestamp:    exec.Now,
		SessionID:    exec.SessionID,
	}
	if exec.ExitCode != nil {
		ec := *exec.ExitCode
		entry.ExitStatus = &ec
	}
	if exec.Duration != nil {
		ms := exec.Duration.Milliseconds()
		entry.DurationMS = &ms
	}

	if matched {
		entry.OriginalCommand = c.original
		entry.SuggestionSource = string(c.source)

		key := policy.SuggestionKey(c.original, c.replacement)
		stat := h.SuggestionStats[key]
		stat.TimesAccepted++
		if entry.Success {
			stat.TimesSuccessful++
		}
		stat.LastUpdated = exec.Now
		stat.Recompute()
		h.SuggestionStats[key] = stat

		corr := h.MappingCorrelations[c.original]
		corr.TotalExecutions++
		if entry.Success {
			corr.SuccessfulExecutions++
		}
		corr.SuccessRate = float64(corr.SuccessfulExecutions) / float64(corr.TotalExecutions)
		corr.ConfidenceAdjustment = (corr.SuccessRate - 0.7) * minFloat(float64(corr.TotalExecutions)/10.0, 1.0) * 0.1
		corr.LastCalculated = exec.Now
		h.MappingCorrelations[c.original] = corr

		adjustConfidence(p, c.source, c.context, c.original, entry.Success)
	}

	appendExecution(h, entry)
}

// adjustConfidence nudges the specific learned mapping's confidence by
// +0.05 on success or -0.10 on failure, clamped to [0.10, 1.00]. Static
// mappings have no adjustable confidence.
func adjustConfidence(p *policy.Policy, source mapping.Source, ctxName, original string, success bool) {
	delta := -0.10
	if success {
		delta = 0.05
	}

	switch source {
	case mapping.SourceProject:
		if lm, ok := p.Learned.Project[original]; ok {
			lm.Confidence = policy.ClampConfidence(lm.Confidence + delta)
			p.Learned.Project[original] = lm
		}
	case mapping.SourceGlobal:
		if lm, ok := p.Learned.Global[original]; ok {
			lm.Confidence = policy.ClampConfidence(lm.Confidence + delta)
			p.Learned.Global[original] = lm
		}
	case mapping.SourceContext:
		if tier, ok := p.Learned.Context[ctxName]; ok {
			if lm, ok := tier[original]; ok {
				lm.Confidence = policy.ClampConfidence(lm.Confidence + delta)
				p.Learned.Context[ctxName][original] = lm
			}
		}
	case mapping.SourceStatic:
		// no adjustable confidence
	}
}

func appendExecution(h *policy.ExecutionHistory, entry policy.CommandExecution) {
	h.CommandExecutions = append(h.CommandExecutions, entry)
	if len(h.CommandExecutions) > policy.MaxCommandExecutions {
		overflow := len(h.CommandExecutions) - policy.MaxCommandExecutions
		h.CommandExecutions = h.CommandExecutions[overflow:]
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
