package backend

import (
	"context"
	"testing"

	"github.com/mihiarc/gofia/errs"
)

func TestSQLiteOpenReadTableAndSchema(t *testing.T) {
	db, err := Open(":memory:", "sqlite")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.Execute(ctx, "CREATE TABLE plot (cn TEXT, statecd INTEGER, invyr INTEGER)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Execute(ctx, "INSERT INTO plot VALUES (?, ?, ?)", "1001", 13, 2023); err != nil {
		t.Fatalf("insert: %v", err)
	}

	exists, err := db.TableExists(ctx, "plot")
	if err != nil || !exists {
		t.Fatalf("TableExists: %v, %v", exists, err)
	}

	fr, err := db.ReadTable(ctx, "plot", ReadTableOptions{})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if fr.NRows() != 1 {
		t.Errorf("got %d rows, want 1", fr.NRows())
	}

	if _, err := db.ReadTable(ctx, "does_not_exist", ReadTableOptions{}); !errs.Is(err, errs.MissingTable) {
		t.Errorf("expected MissingTable, got %v", err)
	}
}

func TestSQLiteSpatialExtensionUnsupported(t *testing.T) {
	db, err := Open(":memory:", "sqlite")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	if err := db.LoadSpatialExtension(context.Background()); !errs.Is(err, errs.SpatialExtensionErr) {
		t.Errorf("expected SpatialExtensionError, got %v", err)
	}
}

func TestOpenUnsupportedEngine(t *testing.T) {
	if _, err := Open("foo", "oracle"); !errs.Is(err, errs.InvalidConfig) {
		t.Errorf("expected InvalidConfig, got %v", err)
	}
}

func TestNormalizeTypeName(t *testing.T) {
	cases := map[string]string{
		"VARCHAR(50)": "VARCHAR",
		"BIGINT":      "BIGINT",
		"DOUBLE":      "DOUBLE",
		"DECIMAL(9,2)": "NUMERIC",
		"BOOLEAN":     "BOOLEAN",
	}
	for in, want := range cases {
		if got := NormalizeTypeName(in); got != want {
			t.Errorf("NormalizeTypeName(%q) = %q, want %q", in, got, want)
		}
	}
}
