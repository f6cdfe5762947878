// Package directory resolves semantic directory aliases — short names that
// stand for path templates in the policy — to canonical filesystem paths,
// and scans prompts for aliases worth reporting.
package directory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirmews/claude-hook-advisor/internal/matcher"
	"github.com/sirmews/claude-hook-advisor/internal/policy"
)

// Sentinel errors for resolution failures (spec §4.3, §7).
var (
	ErrAliasNotFound     = errors.New("directory alias not found")
	ErrVariableRequired  = errors.New("template variable required but not available")
)

// Substitution records one {variable} -> value expansion performed while
// resolving a template.
type Substitution struct {
	Variable string
	Value    string
}

// Resolution is the result of resolving one alias.
type Resolution struct {
	CanonicalPath string
	Alias         string
	Substitutions []Substitution
}

// Env abstracts the environment lookups the resolver needs, so tests can
// supply a fake HOME / project name without mutating process-global state.
type Env struct {
	// Home is the user's home directory indicator (falls back to
	// os.UserHomeDir when empty).
	Home string
	// AutodetectProject, if set, supplies the autodetected project name
	// (the containing VCS root's final path component) used when no
	// configured or environment variable is available for {project} /
	// {current_project}.
	AutodetectProject string
}

func (e Env) home() (string, bool) {
	if e.Home != "" {
		return e.Home, true
	}
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return h, true
	}
	if h := os.Getenv("HOME"); h != "" {
		return h, true
	}
	return "", false
}

// ResolveOne expands alias against p's semantic_directories/directory_variables,
// substitutes {project}, {current_project}, {user_home}, and a leading ~,
// then canonicalizes the result against the filesystem.
func ResolveOne(p *policy.Policy, alias string, env Env) (Resolution, error) {
	tmpl, ok := p.SemanticDirectories[alias]
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %q", ErrAliasNotFound, alias)
	}

	expanded := tmpl
	var subs []Substitution

	for _, name := range []string{"project", "current_project"} {
		placeholder := "{" + name + "}"
		if !strings.Contains(expanded, placeholder) {
			continue
		}
		value, ok := resolveProjectVariable(p, name, env)
		if !ok {
			return Resolution{}, fmt.Errorf("%w: %q", ErrVariableRequired, name)
		}
		expanded = strings.ReplaceAll(expanded, placeholder, value)
		subs = append(subs, Substitution{Variable: name, Value: value})
	}

	if strings.Contains(expanded, "{user_home}") {
		home, ok := resolveUserHome(p, env)
		if !ok {
			return Resolution{}, fmt.Errorf("%w: %q", ErrVariableRequired, "user_home")
		}
		expanded = strings.ReplaceAll(expanded, "{user_home}", home)
		subs = append(subs, Substitution{Variable: "user_home", Value: home})
	}

	if strings.HasPrefix(expanded, "~") {
		home, ok := resolveUserHome(p, env)
		if !ok {
			return Resolution{}, fmt.Errorf("%w: %q", ErrVariableRequired, "user_home")
		}
		expanded = home + strings.TrimPrefix(expanded, "~")
	}

	canonical, err := canonicalize(expanded)
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{
		CanonicalPath: canonical,
		Alias:         alias,
		Substitutions: subs,
	}, nil
}

func resolveUserHome(p *policy.Policy, env Env) (string, bool) {
	if v, ok := p.DirectoryVariables["user_home"]; ok && v != "" {
		return v, true
	}
	return env.home()
}

func resolveProjectVariable(p *policy.Policy, name string, env Env) (string, bool) {
	if v, ok := p.DirectoryVariables[name]; ok && v != "" {
		return v, true
	}
	envKey := "CLAUDE_HOOK_ADVISOR_" + strings.ToUpper(name)
	if v := os.Getenv(envKey); v != "" {
		return v, true
	}
	if env.AutodetectProject != "" {
		return env.AutodetectProject, true
	}
	if detected, ok := autodetectProjectName(); ok {
		return detected, true
	}
	return "", false
}

// autodetectProjectName walks up from the current working directory
// looking for a VCS root (.git) and returns its final path component.
func autodetectProjectName() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	dir := cwd
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info != nil {
			return filepath.Base(dir), true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// canonicalize normalizes path and verifies it exists, providing a
// minimal guard against path traversal.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("canonicalize path %q: %w", abs, err)
	}
	return resolved, nil
}

// Detect scans text for every alias in p.SemanticDirectories that appears
// as a whitespace-delimited token, resolves each, and deduplicates by
// canonical path. Resolution failures are silently suppressed: a caller
// that needs to distinguish "no alias present" from "alias present but
// unresolvable" must inspect the policy directly.
func Detect(p *policy.Policy, text string, env Env) []Resolution {
	aliases := make([]string, 0, len(p.SemanticDirectories))
	for alias := range p.SemanticDirectories {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	seen := map[string]struct{}{}
	var out []Resolution
	for _, alias := range aliases {
		if !matcher.MatchToken(alias, text) {
			continue
		}
		res, err := ResolveOne(p, alias, env)
		if err != nil {
			continue
		}
		if _, dup := seen[res.CanonicalPath]; dup {
			continue
		}
		seen[res.CanonicalPath] = struct{}{}
		out = append(out, res)
	}
	return out
}
