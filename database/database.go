// database.go - Handles database connection and setup

package database // Declares the package name

import ( // Import required packages
	"context" // Request-scoped queries
	"fmt"     // Error wrapping
	"strings" // DSN handling
	"time"    // Slow query threshold

	"go.uber.org/zap"         // Structured logging
	"gorm.io/driver/postgres" // PostgreSQL driver for GORM
	"gorm.io/driver/sqlite"   // SQLite driver for GORM
	"gorm.io/gorm"            // GORM ORM
	"gorm.io/gorm/logger"     // GORM logger config

	"kkmt-store/auth"   // Password hashing
	"kkmt-store/config" // Project config
	"kkmt-store/models" // Entities to migrate
)

// Connect opens the configured database. Unique violations are translated to
// gorm.ErrDuplicatedKey on every driver.
func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver { // Pick the dialect
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(sqliteDSN(cfg.DSN))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,           // Map driver errors to gorm sentinels
		Logger:         newLogger(log), // SQL logs go through zap
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver != "postgres" {
		// SQLite allows a single writer; one connection avoids "database is locked"
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Subcategory{},
		&models.Product{},
		&models.ProductImage{},
		&models.Order{},
		&models.OrderItem{},
		&models.Blog{},
		&models.Settings{},
	)
}

// EnsureAdmin creates the bootstrap admin user if configured and none exists.
// It uses configuration instead of hardcoded credentials.
func EnsureAdmin(ctx context.Context, db *gorm.DB, cfg config.AdminConfig, log *zap.Logger) error {
	// Only create admin if explicitly configured
	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}

	users := models.NewUsersRepository(db)
	count, err := users.CountAdmins(ctx) // Check if any admin user exists
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return err
	}
	name := cfg.Name
	if name == "" {
		name = "Administrator"
	}
	user, created, err := users.UpsertAdmin(ctx, name, cfg.Email, hash)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	log.Info("bootstrap admin ready", zap.String("email", user.Email), zap.Bool("created", created))
	return nil
}

// sqliteDSN turns on foreign keys so ON DELETE rules are enforced.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

func newLogger(log *zap.Logger) logger.Interface {
	if log == nil {
		return logger.Discard
	}
	level := logger.Warn
	if log.Core().Enabled(zap.DebugLevel) {
		level = logger.Info // Log every statement at debug
	}
	return logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
