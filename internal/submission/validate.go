// Package submission turns user input into exactly one project creation request
// and hands the created project to a generation session.
package submission

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/waabox/sitedeck/internal/domain"
)

const (
	MinPromptLength = 50
	MaxPromptLength = 2000

	maxNameLength        = 50
	maxDescriptionLength = 200
	fallbackProjectName  = "ai-generated-app"
)

// ErrEmptyPrompt is returned when the description is blank after trimming.
var ErrEmptyPrompt = errors.New("description is required")

// Input is what the user filled in.
type Input struct {
	Prompt string
	// Structured marks the intake variant that also asks for business details.
	Structured  bool
	Preferences *domain.Preferences
}

// ValidationError describes input rejected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks in locally.
func Validate(in Input) error {
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return ErrEmptyPrompt
	}
	n := utf8.RuneCountInString(prompt)
	if n < MinPromptLength {
		return &ValidationError{Field: "prompt", Message: fmt.Sprintf("%d more characters needed", MinPromptLength-n)}
	}
	if n > MaxPromptLength {
		return &ValidationError{Field: "prompt", Message: fmt.Sprintf("%d characters over limit", n-MaxPromptLength)}
	}
	if in.Structured {
		var p domain.Preferences
		if in.Preferences != nil {
			p = *in.Preferences
		}
		if strings.TrimSpace(p.BusinessName) == "" {
			return &ValidationError{Field: "businessName", Message: "business name is required"}
		}
		if strings.TrimSpace(p.Industry) == "" {
			return &ValidationError{Field: "industry", Message: "industry is required"}
		}
	}
	return nil
}

var (
	nonWord    = regexp.MustCompile(`[^\w\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// DeriveProjectName builds a slug from the first three meaningful words of prompt.
func DeriveProjectName(prompt string) string {
	cleaned := nonWord.ReplaceAllString(strings.ToLower(prompt), "")
	var words []string
	for _, w := range whitespace.Split(cleaned, -1) {
		if len(w) > 2 {
			words = append(words, w)
		}
		if len(words) == 3 {
			break
		}
	}
	name := strings.Join(words, "-")
	if len(name) < 3 {
		return fallbackProjectName
	}
	if len(name) > maxNameLength {
		name = strings.TrimRight(name[:maxNameLength], "-")
	}
	return name
}

// DeriveDescription shortens prompt for the project description field.
func DeriveDescription(prompt string) string {
	if utf8.RuneCountInString(prompt) <= maxDescriptionLength {
		return prompt
	}
	r := []rune(prompt)
	return string(r[:maxDescriptionLength-3]) + "..."
}
