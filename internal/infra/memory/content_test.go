package memory

import (
	"context"
	"testing"

	"lpk-quiz-service/internal/domain"
)

func TestContentFindByIDsSkipsUnknownAndDuplicates(t *testing.T) {
	content := sampleContent()

	got, err := content.FindByIDs(context.Background(), []string{"q1", "nope", "q1", "q3"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got))
	}
}

func TestContentFindByFilter(t *testing.T) {
	content := sampleContent()

	got, err := content.FindByFilter(context.Background(), domain.QuestionFilter{Type: "math"}, 1)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 || got[0].Type != "math" {
		t.Fatalf("expected one math question, got %+v", got)
	}

	got, _ = content.FindByFilter(context.Background(), domain.QuestionFilter{CategoryID: "cat-2"}, 10)
	if len(got) != 1 || got[0].ID != "q3" {
		t.Fatalf("expected q3, got %+v", got)
	}
}

func TestContentCuratedKeepsOrder(t *testing.T) {
	content := sampleContent()
	content.Curate("quiz-1", "q3", "q1")

	got, err := content.CuratedForQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("curated: %v", err)
	}
	if len(got) != 2 || got[0].ID != "q3" || got[1].ID != "q1" {
		t.Fatalf("unexpected curated order: %+v", got)
	}

	got, _ = content.CuratedForQuiz(context.Background(), "other")
	if len(got) != 0 {
		t.Fatalf("expected no curated questions, got %d", len(got))
	}
}
