package sqldb

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*/*.sql
var migrations embed.FS

// migrate applies every pending migration for the DB's dialect. goose keeps
// track of what already ran in its goose_db_version table.
func (db *DB) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger: db.logger})

	if err := goose.SetDialect(db.dialect.gooseDialect()); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	dir := "migrations/" + db.dialect.String()
	if err := goose.UpContext(ctx, db.conn, dir); err != nil {
		return fmt.Errorf("applying %s: %w", dir, err)
	}
	return nil
}

// gooseLogger routes goose's Printf-style output into slog.
type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
	os.Exit(1)
}
