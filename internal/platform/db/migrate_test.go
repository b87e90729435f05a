package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMigrationsSortsByVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "010_later.sql", "SELECT 10;")
	writeFile(t, dir, "001_init.sql", "SELECT 1;")
	writeFile(t, dir, "002_follow_up.sql", "SELECT 2;")
	writeFile(t, dir, "README.md", "not a migration")

	m := NewMigrator(nil, dir)
	migs, err := m.LoadMigrations()
	if err != nil {
		t.Fatal(err)
	}

	if len(migs) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migs))
	}
	wantVersions := []int{1, 2, 10}
	wantNames := []string{"init", "follow_up", "later"}
	for i := range migs {
		if migs[i].Version != wantVersions[i] {
			t.Errorf("migration %d: version %d, want %d", i, migs[i].Version, wantVersions[i])
		}
		if migs[i].Name != wantNames[i] {
			t.Errorf("migration %d: name %q, want %q", i, migs[i].Name, wantNames[i])
		}
	}
	if migs[0].SQL != "SELECT 1;" {
		t.Errorf("unexpected sql %q", migs[0].SQL)
	}
}

func TestLoadMigrationsRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "init.sql", "SELECT 1;")

	m := NewMigrator(nil, dir)
	if _, err := m.LoadMigrations(); err == nil {
		t.Fatal("expected an error for an unversioned filename")
	}

	dir = t.TempDir()
	writeFile(t, dir, "abc_init.sql", "SELECT 1;")
	m = NewMigrator(nil, dir)
	if _, err := m.LoadMigrations(); err == nil {
		t.Fatal("expected an error for a non-numeric version")
	}
}
