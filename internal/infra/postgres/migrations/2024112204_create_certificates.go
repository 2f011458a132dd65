package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0004_create_certificates.sql
var createCertificatesSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execSQL(ctx, db, createCertificatesSQL)
		},
		func(ctx context.Context, db *bun.DB) error {
			return dropTables(ctx, db, "certificates")
		},
	)
}
