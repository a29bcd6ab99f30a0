package sqladapter

import (
	"strings"
	"testing"

	"github.com/oarkflow/tabular/pkg/utils"
)

func TestInsertStatementPostgres(t *testing.T) {
	rows := []utils.Record{
		{"id": 1, "name": "a"},
		{"id": 2, "name": "b"},
	}
	query, args := InsertStatement("postgres", "users", []string{"id", "name"}, rows)
	want := "INSERT INTO users (id, name) VALUES ($1, $2), ($3, $4)"
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
	if len(args) != 4 || args[0] != 1 || args[3] != "b" {
		t.Fatalf("args = %v", args)
	}
}

func TestInsertStatementMySQL(t *testing.T) {
	rows := []utils.Record{{"id": 1, "name": "a"}}
	query, args := InsertStatement("mysql", "users", []string{"id", "name"}, rows)
	want := "INSERT INTO users (id, name) VALUES (?, ?)"
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
	if len(args) != 2 {
		t.Fatalf("args = %v", args)
	}
}

func TestUpdateStatementExcludesKeyFromSet(t *testing.T) {
	row := utils.Record{"id": 7, "name": "x", "city": "rome"}
	query, args := UpdateStatement("postgres", "users", []string{"name", "city"}, "id", row)
	want := "UPDATE users SET name = $1, city = $2 WHERE id = $3"
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
	if len(args) != 3 || args[2] != 7 {
		t.Fatalf("args = %v", args)
	}
	if strings.Contains(strings.SplitN(query, "WHERE", 2)[0], "id =") {
		t.Fatalf("key column leaked into SET list: %q", query)
	}
}

func TestUpdateStatementMySQLPlaceholders(t *testing.T) {
	row := utils.Record{"id": 1, "name": "y"}
	query, _ := UpdateStatement("mysql", "users", []string{"name"}, "id", row)
	if query != "UPDATE users SET name = ? WHERE id = ?" {
		t.Fatalf("query = %q", query)
	}
}

func TestTruncateStatement(t *testing.T) {
	if got := TruncateStatement("postgres", "t"); got != "TRUNCATE TABLE t" {
		t.Fatalf("postgres truncate = %q", got)
	}
	if got := TruncateStatement("sqlite3", "t"); got != "DELETE FROM t" {
		t.Fatalf("sqlite truncate = %q", got)
	}
}

func TestSupportsMultiRowInsert(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql", "sqlite3"} {
		if !SupportsMultiRowInsert(driver) {
			t.Fatalf("%s should support multi-row inserts", driver)
		}
	}
	if SupportsMultiRowInsert("oracle") {
		t.Fatalf("unknown driver should fall back to single-row inserts")
	}
}
