package server

import (
	"fmt"

	"event-match/internal/db"

	"github.com/rs/zerolog/log"
)

var builtinQuestions = []db.QuestionRecord{
	{Text: "What's your ideal weekend?", Options: []string{"Outdoor adventure", "Cozy night in", "Exploring the city", "Seeing friends"}},
	{Text: "Pick a music vibe", Options: []string{"Indie", "Hip-hop", "Electronic", "Classic rock"}},
	{Text: "Coffee or tea?", Options: []string{"Coffee", "Tea", "Neither"}},
	{Text: "How do you describe your style?", Options: []string{"Minimal", "Bold", "Vintage", "Sporty"}},
	{Text: "Early bird or night owl?", Options: []string{"Early bird", "Night owl"}},
}

// defaultQuestions prefers the stored question library over the built-ins.
func (s *Server) defaultQuestions() []Question {
	records := builtinQuestions
	if s.db != nil {
		library, err := db.ListQuestionLibrary(s.db)
		if err != nil {
			log.Warn().Err(err).Msg("load question library failed")
		} else if len(library) > 0 {
			records = library
		}
	}
	questions := make([]Question, 0, len(records))
	for i, record := range records {
		questions = append(questions, Question{
			ID:      fmt.Sprintf("q%d", i+1),
			Text:    record.Text,
			Options: append([]string(nil), record.Options...),
		})
	}
	return questions
}
