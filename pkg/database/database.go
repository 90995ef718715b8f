package database

import (
	"fmt"

	"edu_admin_backend/internal/config"
	"edu_admin_backend/internal/model"
	applog "edu_admin_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table the service owns, in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.Definition{},
		&model.QuestionVersion{},
		&model.Version{},
		&model.VersionQuestion{},
		&model.Delivery{},
		&model.DirectoryGroup{},
		&model.DirectoryCompany{},
		&model.DirectoryUser{},
	}
}

// InitDB opens MySQL. Schema migration runs outside release mode, or when forced.
func InitDB(cfg *config.DatabaseConfig, mode string, forceMigrate bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	level := logger.Info
	if mode == "release" {
		level = logger.Warn
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	applog.Log.Info("Database connection established", zap.String("host", cfg.Host), zap.String("db", cfg.DBName))

	if mode == "release" && !forceMigrate {
		return db, nil
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, err
	}
	applog.Log.Info("Database migration completed")

	return db, nil
}
