package service

import (
	"context"
	"strings"

	"github.com/harshgondal/Job-Finder/internal/llm"
	"github.com/harshgondal/Job-Finder/internal/logger"
	"github.com/harshgondal/Job-Finder/internal/prompts"
)

const maxSimilarRoles = 5

// RoleSuggester proposes related job titles for a search that came back short.
type RoleSuggester struct {
	llm llm.Client
}

// NewRoleSuggester creates a RoleSuggester. A nil client uses the rules only.
func NewRoleSuggester(client llm.Client) *RoleSuggester {
	return &RoleSuggester{llm: client}
}

// SimilarRoles returns up to five titles related to role, never role itself.
func (r *RoleSuggester) SimilarRoles(ctx context.Context, role, location string) []string {
	if r != nil && r.llm != nil {
		roles, err := r.fromLLM(ctx, role, location)
		if err == nil && len(roles) >= 2 {
			return roles
		}
		if err != nil {
			logger.CtxWarn(ctx, "similar roles from llm failed, using rules: role=%s, error=%v", role, err)
		}
	}
	return DeterministicRoles(role)
}

func (r *RoleSuggester) fromLLM(ctx context.Context, role, location string) ([]string, error) {
	if location == "" {
		location = "any"
	}
	raw, err := r.llm.Complete(ctx, llm.Request{
		System:      prompts.SimilarRolesSystemPrompt,
		Prompt:      prompts.Fill(prompts.SimilarRolesUserPrompt, map[string]string{"ROLE": role, "LOCATION": location}),
		MaxTokens:   200,
		Temperature: 0.4,
	})
	if err != nil {
		return nil, err
	}
	var items []any
	if err := llm.DecodeInto(raw, &items); err != nil {
		return nil, err
	}
	return cleanRoles(role, llm.CoerceStrings(items)), nil
}

// DeterministicRoles drops seniority words and swaps engineer/developer.
func DeterministicRoles(role string) []string {
	role = strings.Join(strings.Fields(role), " ")
	base := stripSeniority(role)

	candidates := []string{base, swapEngineerDeveloper(role), swapEngineerDeveloper(base)}
	if strings.Contains(strings.ToLower(base), "software") {
		candidates = append(candidates, strings.TrimSpace(strings.Replace(strings.ToLower(base), "software ", "", 1)))
	}
	return cleanRoles(role, candidates)
}

func stripSeniority(role string) string {
	var kept []string
	for _, w := range strings.Fields(role) {
		if !containsFold(prompts.SeniorityWords, strings.Trim(w, ",")) {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func swapEngineerDeveloper(role string) string {
	words := strings.Fields(role)
	for i, w := range words {
		switch strings.ToLower(w) {
		case "engineer":
			words[i] = matchCase(w, "developer")
		case "developer":
			words[i] = matchCase(w, "engineer")
		case "engineering":
			words[i] = matchCase(w, "development")
		case "development":
			words[i] = matchCase(w, "engineering")
		}
	}
	return strings.Join(words, " ")
}

func matchCase(like, word string) string {
	if like != "" && like[0] >= 'A' && like[0] <= 'Z' {
		return strings.ToUpper(word[:1]) + word[1:]
	}
	return word
}

// cleanRoles trims, dedupes, drops the original role and caps the list.
func cleanRoles(original string, roles []string) []string {
	seen := map[string]bool{strings.ToLower(strings.TrimSpace(original)): true}
	out := []string{}
	for _, r := range roles {
		r = strings.TrimSpace(r)
		k := strings.ToLower(r)
		if len(r) < 2 || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
		if len(out) == maxSimilarRoles {
			break
		}
	}
	return out
}
