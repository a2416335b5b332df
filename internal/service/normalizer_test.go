package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/llm"
)

func TestNormalize_NoLLM(t *testing.T) {
	_, err := NewNormalizer(nil).Normalize(context.Background(), domain.Job{ID: "1"})
	if !errors.Is(err, llm.ErrUnavailable) {
		t.Errorf("Normalize() error = %v, want ErrUnavailable", err)
	}
}

func TestNormalize_CoercesLLMOutput(t *testing.T) {
	client := &stubLLM{answer: `Sure! {"title": "", "required_skills": "Go, Kubernetes,", "nice_to_have": ["Redis", ""],
		"level": "Senior", "work_mode": "On-site", "red_flags": null, "summary": "Build APIs",}`}
	j := domain.Job{ID: "1", Title: "Backend Engineer", Salary: "$150k", Description: strings.Repeat("é", 2500)}

	nj, err := NewNormalizer(client).Normalize(context.Background(), j)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	want := domain.Normalized{
		Title:          "Backend Engineer",
		RequiredSkills: []string{"Go", "Kubernetes"},
		NiceToHave:     []string{"Redis"},
		Level:          domain.LevelSenior,
		WorkMode:       domain.WorkModeOnsite,
		RedFlags:       []string{},
		GreenFlags:     []string{},
		SalaryRange:    "$150k",
		Summary:        "Build APIs",
	}
	if !reflect.DeepEqual(nj.Normalized, want) {
		t.Errorf("Normalized = %+v, want %+v", nj.Normalized, want)
	}
	if nj.ID != "1" {
		t.Errorf("raw job not carried: %+v", nj.Job)
	}

	prompt := client.lastRequest().Prompt
	if n := strings.Count(prompt, "é"); n != maxDescriptionChars {
		t.Errorf("prompt carries %d description runes, want %d", n, maxDescriptionChars)
	}
	if !utf8.ValidString(prompt) {
		t.Error("truncation split a rune")
	}
}

func TestNormalize_BadOutput(t *testing.T) {
	_, err := NewNormalizer(&stubLLM{answer: "no json here"}).Normalize(context.Background(), domain.Job{ID: "1"})
	if err == nil {
		t.Error("expected an error for output without JSON")
	}
	_, err = NewNormalizer(&stubLLM{err: errStub}).Normalize(context.Background(), domain.Job{ID: "1"})
	if !errors.Is(err, errStub) {
		t.Errorf("Normalize() error = %v, want wrapped errStub", err)
	}
}

func TestFallbackNormalize(t *testing.T) {
	j := domain.Job{
		ID:          "1",
		Title:       "Senior Golang Developer",
		Description: "Good knowledge of Go, PostgreSQL and Docker. Hybrid, 3 days a week in Austin.",
		Salary:      "$120k",
	}
	nj := FallbackNormalize(j)

	if !reflect.DeepEqual(nj.Normalized.RequiredSkills, []string{"Go", "Golang", "PostgreSQL", "Docker"}) {
		t.Errorf("RequiredSkills = %v", nj.Normalized.RequiredSkills)
	}
	if nj.Normalized.Level != domain.LevelSenior {
		t.Errorf("Level = %q", nj.Normalized.Level)
	}
	if nj.Normalized.WorkMode != domain.WorkModeHybrid {
		t.Errorf("WorkMode = %q", nj.Normalized.WorkMode)
	}
	if nj.Normalized.SalaryRange != "$120k" || nj.Normalized.NiceToHave == nil {
		t.Errorf("Normalized = %+v", nj.Normalized)
	}
}

func TestContainsWord(t *testing.T) {
	tests := []struct {
		text, word string
		want       bool
	}{
		{"we use go daily", "go", true},
		{"good engineers", "go", false},
		{"go.", "go", true},
		{"c++ and rust", "c++", true},
		{"node.js backend", "node.js", true},
		{"", "go", false},
	}
	for _, tt := range tests {
		if got := containsWord(tt.text, tt.word); got != tt.want {
			t.Errorf("containsWord(%q, %q) = %v, want %v", tt.text, tt.word, got, tt.want)
		}
	}
}

func TestDeterministicRoles(t *testing.T) {
	tests := []struct {
		role string
		want []string
	}{
		{"Senior Software Engineer", []string{"Software Engineer", "Senior Software Developer", "Software Developer", "engineer"}},
		{"Data Scientist", []string{}},
		{"Lead Developer", []string{"Developer", "Lead Engineer", "Engineer"}},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := DeterministicRoles(tt.role); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DeterministicRoles(%q) = %#v, want %#v", tt.role, got, tt.want)
			}
		})
	}
}

func TestSimilarRoles(t *testing.T) {
	ctx := context.Background()

	client := &stubLLM{answer: `["Go Developer", "go engineer", "Backend Engineer", "Backend Engineer", "Platform Engineer", "SRE", "API Engineer", "Systems Engineer"]`}
	got := NewRoleSuggester(client).SimilarRoles(ctx, "Go Engineer", "")
	want := []string{"Go Developer", "Backend Engineer", "Platform Engineer", "SRE", "API Engineer"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SimilarRoles() = %v, want %v", got, want)
	}

	// Too few suggestions from the LLM falls back to the rules.
	got = NewRoleSuggester(&stubLLM{answer: `["Go Developer"]`}).SimilarRoles(ctx, "Senior Go Engineer", "Austin")
	if !reflect.DeepEqual(got, DeterministicRoles("Senior Go Engineer")) {
		t.Errorf("SimilarRoles() = %v, want the rule-based roles", got)
	}

	got = NewRoleSuggester(&stubLLM{err: errStub}).SimilarRoles(ctx, "Go Engineer", "")
	if !reflect.DeepEqual(got, []string{"Go Developer"}) {
		t.Errorf("SimilarRoles() on failure = %v", got)
	}
}
