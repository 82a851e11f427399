package db

import (
	"strings"
	"testing"
)

func TestParseQuestionsSkipsHeaderAndInvalidRows(t *testing.T) {
	input := strings.Join([]string{
		"text,options",
		"Favorite season?, Summer | Winter|Spring",
		",Yes|No",
		"Only one option?,Yes",
		"Coffee or tea?,Coffee|Tea",
	}, "\n")

	records, err := ParseQuestions(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %#v", len(records), records)
	}
	if records[0].Text != "Favorite season?" {
		t.Fatalf("unexpected text %q", records[0].Text)
	}
	if strings.Join(records[0].Options, ",") != "Summer,Winter,Spring" {
		t.Fatalf("unexpected options %#v", records[0].Options)
	}
	if records[1].Text != "Coffee or tea?" {
		t.Fatalf("unexpected text %q", records[1].Text)
	}
}

func TestLoadQuestionLibraryWithoutConnection(t *testing.T) {
	count, err := LoadQuestionLibrary(nil, "missing.csv")
	if err != nil || count != 0 {
		t.Fatalf("expected no-op, got %d %v", count, err)
	}
}
