package db

import (
	"context"
	"fmt"
	"time"

	"askhub/internal/config"
	"askhub/internal/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the configured database. Errors are translated so that
// unique violations surface as gorm.ErrDuplicatedKey on every driver.
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres, "":
		dialector = postgres.Open(cfg.URL)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger: gormlogger.New(zap.NewStdLog(logger.Named("gorm")), gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if cfg.Driver == DriverSQLite {
		// SQLite allows a single writer; serialize at the pool.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connection established", zap.String("driver", cfg.Driver))
	return gdb, nil
}

// Migrate creates or updates every table and seeds the default categories.
func Migrate(ctx context.Context, gdb *gorm.DB, logger *zap.Logger) error {
	if err := gdb.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("database migration completed")
	return seedCategories(ctx, gdb, logger)
}

var defaultCategories = []string{"General", "Engineering", "Product", "Operations"}

func seedCategories(ctx context.Context, gdb *gorm.DB, logger *zap.Logger) error {
	var count int64
	if err := gdb.WithContext(ctx).Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("categories already seeded, skipping")
		return nil
	}

	cats := make([]models.Category, 0, len(defaultCategories))
	for _, name := range defaultCategories {
		cats = append(cats, models.Category{Name: name})
	}
	if err := gdb.WithContext(ctx).Create(&cats).Error; err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	logger.Info("initial categories created", zap.Int("count", len(cats)))
	return nil
}

func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
