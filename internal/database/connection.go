// connection.go
//
// Favorites synchronization for the Proverbs application
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of proverbs-sync.
// proverbs-sync is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// proverbs-sync is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with proverbs-sync.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package database

import (
	"fmt"
	"strings"

	"github.com/localnerve/proverbs-sync/internal/config"
	"github.com/localnerve/proverbs-sync/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect establishes the document database connection based on the configured DB_TYPE
func Connect(cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, error) {
	var dsn string

	switch cfg.DBType {
	case "mysql", "mariadb":
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBAppUser,
			cfg.DBAppPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBAppDatabase,
		)

	case "postgres", "postgresql":
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost,
			cfg.DBAppUser,
			cfg.DBAppPassword,
			cfg.DBAppDatabase,
			cfg.DBPort,
		)

	case "sqlite":
		// For SQLite, DBAppDatabase is the file path
		dsn = cfg.DBAppDatabase

	case "sqlserver", "mssql":
		dsn = fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s",
			cfg.DBAppUser,
			cfg.DBAppPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBAppDatabase,
		)
	}

	db, err := Open(cfg.DBType, dsn, cfg.DBAppConnectionLimit, logger.Info)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"type":     cfg.DBType,
		"database": cfg.DBAppDatabase,
	}).Info("Connected to document database")

	return db, nil
}

// ConnectDSN opens a document database from a "<type>:<dsn>" string,
// for example "sqlite:/var/lib/proverbs/docs.db" or "mysql:user:pass@tcp(host:3306)/docs".
func ConnectDSN(typedDSN string, connectionLimit int) (*gorm.DB, error) {
	dbType, dsn, ok := strings.Cut(typedDSN, ":")
	if !ok || dsn == "" {
		return nil, fmt.Errorf("invalid database DSN %q, expected <type>:<dsn>", typedDSN)
	}
	return Open(dbType, dsn, connectionLimit, logger.Warn)
}

// Open connects to a database of the given type and applies the pool settings
func Open(dbType, dsn string, connectionLimit int, level logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "mysql", "mariadb":
		dialector = mysql.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "sqlserver", "mssql":
		dialector = sqlserver.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB for connection pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	if connectionLimit < 1 {
		connectionLimit = 1
	}
	sqlDB.SetMaxOpenConns(connectionLimit)
	sqlDB.SetMaxIdleConns(max(connectionLimit/2, 1))

	return db, nil
}

// AutoMigrate runs automatic migrations for the document service models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.UserDocument{},
		&models.UserCollectionDocument{},
	)
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
