package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0002_create_attempts.sql
var createAttemptsSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execSQL(ctx, db, createAttemptsSQL)
		},
		func(ctx context.Context, db *bun.DB) error {
			return dropTables(ctx, db, "quiz_attempts")
		},
	)
}
