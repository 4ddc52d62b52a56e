package main

import (
	"database/sql"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// Schema migration runner. With no flags it prints the current version.
func main() {
	up := flag.Bool("up", false, "apply all pending migrations")
	down := flag.Bool("down", false, "roll back everything")
	steps := flag.Int("steps", 0, "apply a signed number of steps")
	source := flag.String("source", "file://db/migrations", "migration source URL")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("migrator: DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("migrator: open: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("migrator: ping: %v", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatalf("migrator: driver: %v", err)
	}
	m, err := migrate.NewWithDatabaseInstance(*source, "postgres", driver)
	if err != nil {
		log.Fatalf("migrator: init: %v", err)
	}

	var migErr error
	switch {
	case *up:
		migErr = m.Up()
	case *down:
		migErr = m.Down()
	case *steps != 0:
		migErr = m.Steps(*steps)
	default:
		version, dirty, err := m.Version()
		if err != nil {
			log.Println("migrator: no version recorded (empty database?)")
			return
		}
		log.Printf("migrator: version=%d dirty=%v", version, dirty)
		return
	}

	if migErr != nil && !errors.Is(migErr, migrate.ErrNoChange) {
		log.Fatalf("migrator: %v", migErr)
	}
	version, dirty, _ := m.Version()
	log.Printf("migrator: done, version=%d dirty=%v", version, dirty)
}
