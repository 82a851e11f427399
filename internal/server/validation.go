package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"event-match/internal/countdown"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	maxNameLength        = 40
	maxTitleLength       = 120
	maxOutfitLength      = 280
	maxMessageLength     = 500
	maxContactLength     = 255
	maxQuestionLength    = 280
	maxOptionLength      = 80
	maxQuestionsPerEvent = 20
	maxOptionsPerQ       = 8
	minPasswordLength    = 6
)

var errInvalidDuration = errors.New("invalid countdown duration")

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("displayname", func(fl validator.FieldLevel) bool {
			_, err := validateName(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("outfit", func(fl validator.FieldLevel) bool {
			_, err := validateOutfit(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("answer", func(fl validator.FieldLevel) bool {
			_, err := validateFreeText("answer", fl.Field().String(), maxOptionLength)
			return err == nil
		})
	})
}

// validateName collapses inner whitespace and accepts any printable text.
func validateName(name string) (string, error) {
	return validateFreeText("display name", normalizeText(name), maxNameLength)
}

func validateTitle(title string) (string, error) {
	return validateFreeText("title", title, maxTitleLength)
}

func validateOutfit(text string) (string, error) {
	return validateFreeText("outfit", text, maxOutfitLength)
}

func validateMessage(text string) (string, error) {
	return validateFreeText("message", text, maxMessageLength)
}

func validateDuration(seconds, min, max int) error {
	if err := countdown.ValidateDuration(seconds, min, max); err != nil {
		return fmt.Errorf("%w: %v", errInvalidDuration, err)
	}
	return nil
}

func validateQuestions(input []questionInput) ([]Question, error) {
	if len(input) > maxQuestionsPerEvent {
		return nil, fmt.Errorf("an event can have at most %d questions", maxQuestionsPerEvent)
	}
	questions := make([]Question, 0, len(input))
	for i, q := range input {
		text, err := validateFreeText("question", q.Text, maxQuestionLength)
		if err != nil {
			return nil, errors.New("each question needs text and at least two options")
		}
		options := make([]string, 0, len(q.Options))
		for _, option := range q.Options {
			trimmed, err := validateFreeText("option", option, maxOptionLength)
			if err != nil {
				continue
			}
			options = append(options, trimmed)
		}
		if len(options) < 2 {
			return nil, errors.New("each question needs text and at least two options")
		}
		if len(options) > maxOptionsPerQ {
			return nil, fmt.Errorf("a question can have at most %d options", maxOptionsPerQ)
		}
		questions = append(questions, Question{
			ID:      fmt.Sprintf("q%d", i+1),
			Text:    text,
			Options: options,
		})
	}
	return questions, nil
}

// validateFreeText accepts any printable text, including non-ASCII.
func validateFreeText(label, text string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if len([]rune(trimmed)) > maxLen {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxLen)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) && r != '\n' {
			return "", fmt.Errorf("%s contains unsupported characters", label)
		}
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}
