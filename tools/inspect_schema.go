package main

import (
	"fmt"
	"log"

	"github.com/localnerve/proverbs-sync/internal/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Prints the sqlite DDL gorm generates for the local and document schemas
func main() {
	for _, schema := range []struct {
		name    string
		migrate func(*gorm.DB) error
	}{
		{"local", database.AutoMigrateLocal},
		{"documents", database.AutoMigrate},
	} {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		if err != nil {
			log.Fatal(err)
		}
		if err := schema.migrate(db); err != nil {
			log.Fatalf("%s: %v", schema.name, err)
		}

		var tables []string
		db.Raw("SELECT name FROM sqlite_master WHERE type IN ('table', 'index') AND sql IS NOT NULL ORDER BY name").Scan(&tables)

		fmt.Printf("##### %s #####\n", schema.name)
		for _, table := range tables {
			var ddl string
			db.Raw("SELECT sql FROM sqlite_master WHERE name = ?", table).Scan(&ddl)
			fmt.Printf("\n=== %s ===\n%s\n", table, ddl)
		}
		fmt.Println()
	}
}
