package submission_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/waabox/sitedeck/internal/domain"
	"github.com/waabox/sitedeck/internal/submission"
)

func TestValidate_LengthBoundaries(t *testing.T) {
	cases := []struct {
		length  int
		wantErr bool
	}{
		{49, true},
		{50, false},
		{2000, false},
		{2001, true},
	}
	for _, tc := range cases {
		err := submission.Validate(submission.Input{Prompt: strings.Repeat("a", tc.length)})
		if (err != nil) != tc.wantErr {
			t.Errorf("length %d: wantErr=%v, got %v", tc.length, tc.wantErr, err)
		}
	}
}

func TestValidate_MessagesNameTheShortfall(t *testing.T) {
	err := submission.Validate(submission.Input{Prompt: strings.Repeat("a", 49)})
	var verr *submission.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Message != "1 more characters needed" {
		t.Errorf("unexpected message: %q", verr.Message)
	}

	err = submission.Validate(submission.Input{Prompt: strings.Repeat("a", 2003)})
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Message != "3 characters over limit" {
		t.Errorf("unexpected message: %q", verr.Message)
	}
}

func TestValidate_TrimsBeforeCounting(t *testing.T) {
	prompt := "   " + strings.Repeat("a", 49) + "   "
	if err := submission.Validate(submission.Input{Prompt: prompt}); err == nil {
		t.Error("expected surrounding whitespace not to count")
	}
}

func TestValidate_CountsCharactersNotBytes(t *testing.T) {
	if err := submission.Validate(submission.Input{Prompt: strings.Repeat("é", 50)}); err != nil {
		t.Errorf("expected 50 two-byte characters to be accepted, got %v", err)
	}
}

func TestValidate_EmptyPrompt(t *testing.T) {
	if err := submission.Validate(submission.Input{Prompt: "  \n "}); !errors.Is(err, submission.ErrEmptyPrompt) {
		t.Errorf("expected ErrEmptyPrompt, got %v", err)
	}
}

func TestValidate_StructuredRequiresBusinessDetails(t *testing.T) {
	prompt := strings.Repeat("a", 60)
	err := submission.Validate(submission.Input{Prompt: prompt, Structured: true})
	var verr *submission.ValidationError
	if !errors.As(err, &verr) || verr.Field != "businessName" {
		t.Fatalf("expected businessName error, got %v", err)
	}

	err = submission.Validate(submission.Input{
		Prompt:      prompt,
		Structured:  true,
		Preferences: &domain.Preferences{BusinessName: "Bakery"},
	})
	if !errors.As(err, &verr) || verr.Field != "industry" {
		t.Fatalf("expected industry error, got %v", err)
	}

	err = submission.Validate(submission.Input{
		Prompt:      prompt,
		Structured:  true,
		Preferences: &domain.Preferences{BusinessName: "Bakery", Industry: "food"},
	})
	if err != nil {
		t.Errorf("expected valid structured input, got %v", err)
	}
}

func TestDeriveProjectName(t *testing.T) {
	cases := map[string]string{
		"A modern website for my bakery, with online orders!": "modern-website-for",
		"I am ok":           "ai-generated-app",
		"Build a SaaS tool": "build-saas-tool",
		"":                  "ai-generated-app",
	}
	for prompt, want := range cases {
		if got := submission.DeriveProjectName(prompt); got != want {
			t.Errorf("%q: want %q, got %q", prompt, want, got)
		}
	}
}

func TestDeriveProjectName_CapsLength(t *testing.T) {
	prompt := strings.Repeat("x", 40) + " " + strings.Repeat("y", 40)
	got := submission.DeriveProjectName(prompt)
	if len(got) > 50 {
		t.Errorf("expected at most 50 characters, got %d (%q)", len(got), got)
	}
}

func TestDeriveDescription(t *testing.T) {
	short := strings.Repeat("a", 200)
	if got := submission.DeriveDescription(short); got != short {
		t.Errorf("expected prompt of 200 characters unchanged")
	}
	long := strings.Repeat("b", 201)
	got := submission.DeriveDescription(long)
	if len(got) != 200 || !strings.HasSuffix(got, "...") {
		t.Errorf("expected 197 characters plus ellipsis, got %d (%q)", len(got), got)
	}
}
