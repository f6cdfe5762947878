package policy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Sentinel errors for policy store failures.
var (
	// ErrPolicyUnreadable is returned when an existing policy file cannot
	// be parsed under either the current or the legacy schema.
	ErrPolicyUnreadable = errors.New("policy file could not be parsed under any known schema")
)

// header is the machine-managed-sections comment prepended on every save.
const header = "# Managed by claude-hook-advisor. The [learned], [never_suggest], and\n" +
	"# [execution_history] sections are machine-managed; hand edits there may\n" +
	"# be overwritten. [commands] and [semantic_directories] are yours.\n\n"

// legacyPolicy recognizes only the static-mappings table, for policies
// written before learned mappings, directory aliases, and history existed.
type legacyPolicy struct {
	StaticMappings map[string]string `toml:"commands"`
}

// knownTopLevelKeys are the TOML table/key names Policy models directly.
// Anything else found at the top level of a loaded file is an extension
// this program doesn't understand and must carry forward unread.
var knownTopLevelKeys = map[string]struct{}{
	"commands":             {},
	"semantic_directories": {},
	"directory_variables":  {},
	"learned":              {},
	"never_suggest":        {},
	"confidence_overrides": {},
	"execution_history":    {},
	"learning_meta":        {},
	"features":             {},
}

// extractUnknownTopLevel decodes data into a generic table and returns
// whichever top-level entries Policy's schema doesn't claim, so Load can
// stash them on Policy.Extra for SaveAtomic to write back untouched.
func extractUnknownTopLevel(data string) map[string]any {
	var raw map[string]any
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil
	}
	extra := map[string]any{}
	for k, v := range raw {
		if _, known := knownTopLevelKeys[k]; known {
			continue
		}
		extra[k] = v
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}

// Load reads the policy file at path. A missing file is not an error: it
// returns a freshly initialized policy and passes one warning to warnings
// (nil discards it). A present-but-unparsable file is retried under the
// legacy schema; if that also fails, Load returns an error that wraps
// ErrPolicyUnreadable and includes the original parse error's text. Any
// top-level table or key the Policy schema doesn't recognize is captured
// into Policy.Extra and written back unchanged by SaveAtomic.
func Load(path string, warnings func(string)) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if warnings != nil {
				warnings(fmt.Sprintf("Warning: policy file %q not found. No command mappings will be applied.", path))
			}
			return materialize(&Policy{}), nil
		}
		return nil, fmt.Errorf("read policy file %s: %w", path, err)
	}

	var p Policy
	if _, err := toml.Decode(string(data), &p); err == nil {
		p.Extra = extractUnknownTopLevel(string(data))
		return materialize(&p), nil
	} else {
		firstErr := err
		var legacy legacyPolicy
		if _, lerr := toml.Decode(string(data), &legacy); lerr == nil {
			fresh := materialize(&Policy{StaticMappings: legacy.StaticMappings})
			fresh.Extra = extractUnknownTopLevel(string(data))
			return fresh, nil
		}
		return nil, fmt.Errorf("%s: %w: %v", path, ErrPolicyUnreadable, firstErr)
	}
}

// materialize ensures every optional section is non-nil so downstream
// components never need a nil-map check.
func materialize(p *Policy) *Policy {
	if p.StaticMappings == nil {
		p.StaticMappings = map[string]string{}
	}
	if p.SemanticDirectories == nil {
		p.SemanticDirectories = map[string]string{}
	}
	if p.DirectoryVariables == nil {
		p.DirectoryVariables = map[string]string{}
	}
	if p.Learned.Global == nil {
		p.Learned.Global = map[string]LearnedMapping{}
	}
	if p.Learned.Project == nil {
		p.Learned.Project = map[string]LearnedMapping{}
	}
	if p.Learned.Context == nil {
		p.Learned.Context = map[string]map[string]LearnedMapping{}
	}
	if p.NeverSuggest == nil {
		p.NeverSuggest = map[string]string{}
	}
	if p.ConfidenceOverrides == nil {
		p.ConfidenceOverrides = map[string]float64{}
	}
	if p.ExecutionHistory.SuggestionStats == nil {
		p.ExecutionHistory.SuggestionStats = map[string]SuggestionStat{}
	}
	if p.ExecutionHistory.MappingCorrelations == nil {
		p.ExecutionHistory.MappingCorrelations = map[string]MappingCorrelation{}
	}
	if p.FeatureFlags == nil {
		p.FeatureFlags = map[string]bool{}
	}
	if p.LearningMetadata.Version == "" {
		p.LearningMetadata.Version = CurrentSchemaVersion
	}
	return p
}

// SaveAtomic serializes policy to path via a temp file in the same
// directory followed by a rename, so a half-written file can never be
// observed by another process. The schema version is upgraded to current
// and LastUpdated is stamped unconditionally.
func SaveAtomic(path string, p *Policy) error {
	if p.LearningMetadata.Version != CurrentSchemaVersion {
		p.LearningMetadata.Version = CurrentSchemaVersion
	}
	p.LearningMetadata.LastUpdated = time.Now().UTC()

	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, ".claude-hook-advisor-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp policy file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.WriteString(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write policy header: %w", err)
	}
	enc := toml.NewEncoder(tmp)
	// Extensions go first: a bare top-level key written after a [table]
	// header would be read back as part of that table. Every Policy field
	// encodes as a table, so nothing written after the extensions can
	// attach to them.
	if len(p.Extra) > 0 {
		if err := enc.Encode(p.Extra); err != nil {
			tmp.Close()
			return fmt.Errorf("encode preserved extensions: %w", err)
		}
	}
	if err := enc.Encode(p); err != nil {
		tmp.Close()
		return fmt.Errorf("encode policy: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp policy file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename policy file into place: %w", err)
	}
	return nil
}
