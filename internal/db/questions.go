package db

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuestionRecord is one row of a question library CSV.
type QuestionRecord struct {
	Text    string
	Options []string
}

// LoadQuestionLibrary reads questions from a CSV and upserts them into question_library.
func LoadQuestionLibrary(conn *gorm.DB, path string) (int, error) {
	if conn == nil {
		return 0, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	records, err := ParseQuestions(file)
	if err != nil {
		return 0, err
	}
	inserted := 0
	for _, record := range records {
		options, err := json.Marshal(record.Options)
		if err != nil {
			return inserted, err
		}
		entry := QuestionLibrary{Text: record.Text}
		if err := conn.Where(QuestionLibrary{Text: record.Text}).
			Assign(QuestionLibrary{Options: datatypes.JSON(options)}).
			FirstOrCreate(&entry).Error; err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// ListQuestionLibrary returns every stored question in insertion order.
func ListQuestionLibrary(conn *gorm.DB) ([]QuestionRecord, error) {
	if conn == nil {
		return nil, nil
	}
	var rows []QuestionLibrary
	if err := conn.Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]QuestionRecord, 0, len(rows))
	for _, row := range rows {
		var options []string
		if err := json.Unmarshal(row.Options, &options); err != nil {
			return nil, fmt.Errorf("question %d options: %w", row.ID, err)
		}
		records = append(records, QuestionRecord{Text: row.Text, Options: options})
	}
	return records, nil
}

// ParseQuestions reads `text,option|option|...` rows. The first row is a header.
// Rows with an empty text or fewer than two options are skipped.
func ParseQuestions(r io.Reader) ([]QuestionRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var records []QuestionRecord
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 2 {
			continue
		}
		text := strings.TrimSpace(row[0])
		if text == "" {
			continue
		}
		var options []string
		for _, option := range strings.Split(row[1], "|") {
			if trimmed := strings.TrimSpace(option); trimmed != "" {
				options = append(options, trimmed)
			}
		}
		if len(options) < 2 {
			continue
		}
		records = append(records, QuestionRecord{Text: text, Options: options})
	}
	return records, nil
}
