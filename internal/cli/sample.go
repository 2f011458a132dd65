package cli

import (
	"encoding/json"

	"lpk-quiz-service/internal/domain"
	"lpk-quiz-service/internal/infra/memory"
)

// sampleContent seeds the in-memory catalogue used when no database is configured.
func sampleContent() *memory.Content {
	content := memory.NewContent()
	content.PutQuiz(domain.Quiz{
		ID:         "quiz-jp-n5",
		Title:      "Bahasa Jepang N5: Kosakata Dasar",
		CategoryID: "bahasa-jepang",
		IsActive:   true,
		Config:     json.RawMessage(`{"question_count": 3, "duration": 15}`),
	})
	content.PutQuestions(
		domain.Question{
			ID:            "n5-1",
			Content:       "Apa arti kata 'mizu'?",
			Options:       []string{"Api", "Air", "Angin", "Tanah"},
			CorrectAnswer: "Air",
			Explanation:   "mizu (水) berarti air.",
			Type:          "vocabulary",
			CategoryID:    "bahasa-jepang",
		},
		domain.Question{
			ID:            "n5-2",
			Content:       "Bagaimana mengucapkan 'terima kasih'?",
			Options:       []string{"Sumimasen", "Arigatou", "Konnichiwa", "Sayounara"},
			CorrectAnswer: "Arigatou",
			Type:          "vocabulary",
			CategoryID:    "bahasa-jepang",
		},
		domain.Question{
			ID:            "n5-3",
			Content:       "Angka 'san' adalah?",
			Options:       []string{"1", "2", "3", "4"},
			CorrectAnswer: "3",
			Explanation:   "ichi, ni, san: satu, dua, tiga.",
			Type:          "number",
			CategoryID:    "bahasa-jepang",
		},
	)
	content.Curate("quiz-jp-n5", "n5-1", "n5-2", "n5-3")
	return content
}
