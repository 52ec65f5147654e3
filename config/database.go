package config

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds the driver connection string unless DB_DSN overrides it.
func (c Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	switch c.DBDriver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
	case "sqlite":
		return c.DBName + ".db"
	default:
		auth := c.DBUser
		if c.DBPassword != "" {
			auth = c.DBUser + ":" + c.DBPassword
		}
		// parseTime so DATETIME columns scan into time.Time
		return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			auth, c.DBHost, c.DBPort, c.DBName)
	}
}

func (c Config) dialector() gorm.Dialector {
	switch c.DBDriver {
	case "postgres":
		return postgres.Open(c.DSN())
	case "sqlite":
		return sqlite.Open(c.DSN())
	default:
		return mysql.Open(c.DSN())
	}
}

// InitDB opens the configured database and sizes its connection pool.
func InitDB(c Config) (*gorm.DB, error) {
	level := logger.Warn
	if c.Env == "development" {
		level = logger.Info
	}

	db, err := gorm.Open(c.dialector(), &gorm.Config{Logger: logger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if c.DBDriver == "sqlite" {
		// one writer at a time
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}
