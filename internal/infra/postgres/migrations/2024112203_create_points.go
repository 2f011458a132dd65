package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0003_create_points.sql
var createPointsSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execSQL(ctx, db, createPointsSQL)
		},
		func(ctx context.Context, db *bun.DB) error {
			return dropTables(ctx, db, "user_points", "point_ledger")
		},
	)
}
