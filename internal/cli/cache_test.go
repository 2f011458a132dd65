package cli

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"lpk-quiz-service/internal/domain"
	"lpk-quiz-service/internal/infra/memory"
	redisinfra "lpk-quiz-service/internal/infra/redis"
)

func TestInvalidateQuizzesReloadsDeactivatedQuiz(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	content := memory.NewContent()
	content.PutQuiz(domain.Quiz{ID: "quiz-1", Title: "Bahasa Jepang N5", IsActive: true})
	repo := redisinfra.NewQuizRepository(client, content, time.Hour)
	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}

	content.PutQuiz(domain.Quiz{ID: "quiz-1", Title: "Bahasa Jepang N5", IsActive: false})
	stale, _ := repo.GetQuiz(ctx, "quiz-1")
	if !stale.IsActive {
		t.Fatalf("expected the cached copy before invalidation")
	}

	if err := invalidateQuizzes(ctx, client, []string{"quiz-1", "never-cached"}); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	fresh, err := repo.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz after invalidate: %v", err)
	}
	if fresh.IsActive {
		t.Fatalf("expected deactivation visible after invalidation")
	}
	if err := fresh.CheckAvailable(time.Now()); err != domain.ErrQuizInactive {
		t.Fatalf("expected inactive quiz to be rejected, got %v", err)
	}
}
