package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/config"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/database"
)

// Repositories groups the Postgres-backed stores.
type Repositories struct {
	Rules        *database.RulesRepository
	Sources      *database.SourceRepository
	Decisions    *database.DecisionRepository
	DeadLetters  *database.DeadLetterRepository
	Fingerprints *database.FingerprintRepository
}

// SetupDatabase runs pending migrations when enabled and opens the connection.
func SetupDatabase(cfg *config.Config, log infralogger.Logger) (*sqlx.DB, error) {
	conn := cfg.Database.Connection()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(conn, cfg.Database.MigrationsPath, log); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	db, err := database.NewPostgresConnection(conn)
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}

	log.Info("Database connection established",
		infralogger.String("host", cfg.Database.Host),
		infralogger.String("database", cfg.Database.Database),
	)
	return db, nil
}

// NewRepositories creates every repository over db.
func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Rules:        database.NewRulesRepository(db),
		Sources:      database.NewSourceRepository(db),
		Decisions:    database.NewDecisionRepository(db),
		DeadLetters:  database.NewDeadLetterRepository(db),
		Fingerprints: database.NewFingerprintRepository(db),
	}
}
