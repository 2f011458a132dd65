package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"lpk-quiz-service/internal/config"
	redisinfra "lpk-quiz-service/internal/infra/redis"
)

// NewInvalidateQuizCmd drops cached quizzes from Redis so running servers
// pick up edits (deactivation, a moved window) on their next lookup.
func NewInvalidateQuizCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate-quiz <quiz-id>...",
		Short: "Drop cached quizzes after editing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Redis.Addr == "" {
				return fmt.Errorf("redis addr not configured; in-memory caches expire with quiz.ttl")
			}
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer client.Close()
			return invalidateQuizzes(cmd.Context(), client, args)
		},
	}
}

func invalidateQuizzes(ctx context.Context, client *redis.Client, quizIDs []string) error {
	repo := redisinfra.NewQuizRepository(client, nil, 0)
	for _, id := range quizIDs {
		if err := repo.Invalidate(ctx, id); err != nil {
			return fmt.Errorf("invalidate quiz %s: %w", id, err)
		}
		log.Printf("invalidated cached quiz %s", id)
	}
	return nil
}
