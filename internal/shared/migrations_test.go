package shared

import (
	"errors"
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		for _, m := range migrations {
			if m.Up == "" || m.Down == "" {
				t.Errorf("migration version %d is missing a direction", m.Version)
			}
		}
		if migrations[0].Name != "create_documents" {
			t.Errorf("expected the first migration to be create_documents, got %q", migrations[0].Name)
		}
	})

	t.Run("parseMigrationName", func(t *testing.T) {
		tests := []struct {
			file      string
			version   int
			name      string
			direction string
			ok        bool
		}{
			{"0001_index_documents_up.sql", 1, "index_documents", "up", true},
			{"0000_create_documents_down.sql", 0, "create_documents", "down", true},
			{"0002_seed.sql", 0, "", "", false},
			{"notes_up.sql", 0, "", "", false},
			{"0003_readme_up.txt", 0, "", "", false},
		}

		for _, tt := range tests {
			version, name, direction, ok := parseMigrationName(tt.file)
			if ok != tt.ok || version != tt.version || name != tt.name || direction != tt.direction {
				t.Errorf("parseMigrationName(%q) = %d, %q, %q, %v", tt.file, version, name, direction, ok)
			}
		}
	})

	t.Run("splitStatements", func(t *testing.T) {
		script := "-- header\nCREATE TABLE a (id INTEGER); -- trailing\n\n;CREATE INDEX i ON a(id);\n"
		got := splitStatements(script)
		if len(got) != 2 {
			t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
		}
		if got[0] != "CREATE TABLE a (id INTEGER)" {
			t.Errorf("unexpected first statement %q", got[0])
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if _, ok, err := SchemaVersion(db); err != nil || ok {
			t.Fatalf("expected an empty schema, got ok=%v err=%v", ok, err)
		}
		if _, err := RollbackMigration(db); !errors.Is(err, ErrNoMigrations) {
			t.Errorf("expected ErrNoMigrations, got %v", err)
		}

		migrations, _ := loadMigrations()
		ran, err := RunMigrations(db)
		if err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		if ran != len(migrations) {
			t.Errorf("expected %d migrations to run, got %d", len(migrations), ran)
		}

		if _, err := db.Exec("SELECT 1 FROM documents LIMIT 1"); err != nil {
			t.Errorf("documents table should exist after migrations: %v", err)
		}

		latest := migrations[len(migrations)-1]
		version, ok, err := SchemaVersion(db)
		if err != nil || !ok || version != latest.Version {
			t.Fatalf("expected schema version %d, got %d (ok=%v, err=%v)", latest.Version, version, ok, err)
		}

		rolled, err := RollbackMigration(db)
		if err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}
		if rolled.Version != latest.Version {
			t.Errorf("expected to roll back version %d, got %d", latest.Version, rolled.Version)
		}

		if version, _, _ := SchemaVersion(db); len(migrations) > 1 && version != migrations[len(migrations)-2].Version {
			t.Errorf("expected schema version to drop, got %d", version)
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if _, err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		ran, err := RunMigrations(db)
		if err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}
		if ran != 0 {
			t.Errorf("expected no migrations on the second run, got %d", ran)
		}
	})
}
