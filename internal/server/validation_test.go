package server

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	got, err := validateName("  Grace   Hopper ")
	if err != nil || got != "Grace Hopper" {
		t.Fatalf("expected collapsed name, got %q %v", got, err)
	}
	for _, ok := range []string{"José", "Sam #2", "李小龙", "O'Brien"} {
		if got, err := validateName(ok); err != nil || got != ok {
			t.Fatalf("expected %q to be accepted, got %q %v", ok, got, err)
		}
	}
	for _, bad := range []string{"", "   ", "tab\x00", strings.Repeat("é", maxNameLength+1)} {
		if _, err := validateName(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestValidateFreeTextAllowsUnicode(t *testing.T) {
	got, err := validateOutfit("  Café crème trench  ")
	if err != nil || got != "Café crème trench" {
		t.Fatalf("expected trimmed outfit, got %q %v", got, err)
	}
	if _, err := validateMessage("bell\a"); err == nil {
		t.Fatalf("expected control characters to be rejected")
	}
	if _, err := validateMessage(strings.Repeat("é", maxMessageLength+1)); err == nil {
		t.Fatalf("expected long message to be rejected")
	}
}

func TestValidateQuestionsAssignsIDs(t *testing.T) {
	questions, err := validateQuestions([]questionInput{
		{Text: "Sneakers or boots?", Options: []string{"Sneakers", " ", "Boots"}},
		{Text: "Hat?", Options: []string{"Yes", "No"}},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if questions[0].ID != "q1" || questions[1].ID != "q2" {
		t.Fatalf("unexpected ids %s %s", questions[0].ID, questions[1].ID)
	}
	if len(questions[0].Options) != 2 {
		t.Fatalf("expected blank options dropped, got %v", questions[0].Options)
	}
	if _, err := validateQuestions([]questionInput{{Text: "Hat?", Options: []string{"Yes", ""}}}); err == nil {
		t.Fatalf("expected single option question to be rejected")
	}
	if _, err := validateQuestions([]questionInput{{Text: " ", Options: []string{"Yes", "No"}}}); err == nil {
		t.Fatalf("expected blank question to be rejected")
	}
}

func TestValidateDurationWrapsSentinel(t *testing.T) {
	if err := validateDuration(59, 60, 3600); !errors.Is(err, errInvalidDuration) {
		t.Fatalf("expected invalid duration, got %v", err)
	}
	if err := validateDuration(3600, 60, 3600); err != nil {
		t.Fatalf("expected upper bound accepted, got %v", err)
	}
}

func TestPhaseTransitions(t *testing.T) {
	if !canTransition(phaseLobby, phaseCountdown) || canTransition(phaseCountdown, phaseCountdown) {
		t.Fatalf("unexpected countdown transitions")
	}
	if canTransition(phaseRevealed, phaseLobby) {
		t.Fatalf("revealed events never return to the lobby")
	}
	if isVotingOpen(phaseLobby) || !isVotingOpen(phaseVoting) || isVotingOpen(phaseRevealed) {
		t.Fatalf("unexpected voting window")
	}
}
