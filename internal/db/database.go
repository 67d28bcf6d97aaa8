package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mindloop/learncoach-backend/internal/config"
	"github.com/mindloop/learncoach-backend/internal/logger"
	"github.com/mindloop/learncoach-backend/internal/types"
)

type DatabaseService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewDatabaseService opens postgres when a host is configured, otherwise the
// sqlite file at cfg.SQLitePath. All ids and timestamps are generated in
// application code, so both backends share the same schema.
func NewDatabaseService(cfg *config.Config, log *logger.Logger) (*DatabaseService, error) {
	serviceLog := log.With("service", "DatabaseService")

	var (
		db  *gorm.DB
		err error
	)
	if cfg.UsePostgres() {
		// Constraints are added explicitly in AutoMigrateAll so their
		// names stay stable across gorm versions.
		gormCfg := &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		}
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresName)
		serviceLog.Info("Connecting to Postgres...", "host", cfg.PostgresHost, "db", cfg.PostgresName)
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
	} else {
		// sqlite cannot ALTER TABLE ... ADD CONSTRAINT, so the cascade
		// FKs must be declared at table creation, and enforcement must
		// be switched on per connection, not once per pool.
		dsn := sqliteDSN(cfg.SQLitePath)
		serviceLog.Info("Connecting to SQLite...", "path", cfg.SQLitePath)
		db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}
	if err != nil {
		serviceLog.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("Failed to connect to database: %w", err)
	}

	return &DatabaseService{db: db, log: serviceLog}, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}

func (s *DatabaseService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.LearningSession{},
		&types.Card{},
		&types.ReviewEvent{},
		&types.UserStatistics{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}

	if s.db.Dialector.Name() == "postgres" {
		s.log.Info("Configuring foreign key relationships...")
		constraints := []struct {
			name string
			sql  string
		}{
			{
				name: "fk_user_token_user_id",
				sql: `ALTER TABLE "user_token" ADD CONSTRAINT "fk_user_token_user_id"
					FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`,
			},
			{
				name: "fk_learning_session_user_id",
				sql: `ALTER TABLE "learning_session" ADD CONSTRAINT "fk_learning_session_user_id"
					FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`,
			},
			{
				name: "fk_card_user_id",
				sql: `ALTER TABLE "card" ADD CONSTRAINT "fk_card_user_id"
					FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`,
			},
			{
				name: "fk_review_event_card_id",
				sql: `ALTER TABLE "review_event" ADD CONSTRAINT "fk_review_event_card_id"
					FOREIGN KEY ("card_id") REFERENCES "card"("id") ON DELETE CASCADE`,
			},
			{
				name: "fk_user_statistics_user_id",
				sql: `ALTER TABLE "user_statistics" ADD CONSTRAINT "fk_user_statistics_user_id"
					FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`,
			},
		}
		for _, c := range constraints {
			var exists bool
			s.db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`, c.name).Scan(&exists)
			if exists {
				continue
			}
			if err := s.db.Exec(c.sql).Error; err != nil {
				return fmt.Errorf("Failed to add %s: %w", c.name, err)
			}
		}
	}
	return nil
}

func (s *DatabaseService) DB() *gorm.DB {
	return s.db
}
