package store

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
)

// Schema files live at store/migration/{driver}/LATEST.sql. LATEST.sql holds
// the full schema for fresh installations; the applied version is recorded in
// system_setting afterward.

//go:embed migration
var migrationFS embed.FS

// LatestSchemaFileName is the name of the latest schema file.
const LatestSchemaFileName = "LATEST.sql"

// Migrate initializes the database schema for a fresh installation. An
// already-initialized database is left untouched.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check database initialization")
	}
	if initialized {
		return nil
	}

	schemaPath := fmt.Sprintf("migration/%s/%s", s.profile.Driver, LatestSchemaFileName)
	schema, err := migrationFS.ReadFile(schemaPath)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema %q", schemaPath)
	}

	if _, err := s.driver.GetDB().ExecContext(ctx, string(schema)); err != nil {
		return errors.Wrap(err, "failed to apply latest schema")
	}

	if _, err := s.driver.UpsertSystemSetting(ctx, &SystemSetting{
		Name:  SystemSettingSchemaVersion,
		Value: s.profile.Version,
	}); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}

	slog.Info("database initialized",
		slog.String("driver", s.profile.Driver),
		slog.String("schema_version", s.profile.Version))
	return nil
}
