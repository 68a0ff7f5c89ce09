package kindle

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// buildVocabDB creates a minimal Kindle vocab.db fixture and returns its bytes.
func buildVocabDB(t *testing.T, populate func(t *testing.T, db *sql.DB)) []byte {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture database: %v", err)
	}

	schema := `
CREATE TABLE WORDS (id TEXT PRIMARY KEY, stem TEXT, timestamp INTEGER);
CREATE TABLE LOOKUPS (id TEXT PRIMARY KEY, word_key TEXT, book_key TEXT, usage TEXT);
CREATE TABLE BOOK_INFO (id TEXT PRIMARY KEY, title TEXT);
`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create fixture schema: %v", err)
	}

	if populate != nil {
		populate(t, db)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("close fixture database: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture database: %v", err)
	}
	return data
}

func TestParseVocabDB_JoinsWordUsageAndBook(t *testing.T) {
	ts := time.Date(2024, time.March, 10, 8, 30, 0, 0, time.UTC).UnixMilli()

	data := buildVocabDB(t, func(t *testing.T, db *sql.DB) {
		mustExec(t, db, "INSERT INTO WORDS VALUES ('w1', 'bonjour', ?)", ts)
		mustExec(t, db, "INSERT INTO BOOK_INFO VALUES ('b1', 'Le Petit Prince')")
		mustExec(t, db, "INSERT INTO LOOKUPS VALUES ('l1', 'w1', 'b1', 'Bonjour le monde')")
	})

	records, err := ParseVocabDB(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	record := records[0]
	if record.Word != "bonjour" {
		t.Errorf("expected word 'bonjour', got %q", record.Word)
	}
	if record.Context != "Bonjour le monde" {
		t.Errorf("expected context 'Bonjour le monde', got %q", record.Context)
	}
	if record.Book != "Le Petit Prince" {
		t.Errorf("expected book 'Le Petit Prince', got %q", record.Book)
	}
	if record.Timestamp.UnixMilli() != ts {
		t.Errorf("expected timestamp %d, got %d", ts, record.Timestamp.UnixMilli())
	}
}

func TestParseVocabDB_WordWithoutLookup(t *testing.T) {
	data := buildVocabDB(t, func(t *testing.T, db *sql.DB) {
		mustExec(t, db, "INSERT INTO WORDS VALUES ('w1', 'serendipity', 0)")
	})

	records, err := ParseVocabDB(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	record := records[0]
	if record.Context != "" {
		t.Errorf("expected empty context, got %q", record.Context)
	}
	if record.Book != "" {
		t.Errorf("expected empty book, got %q", record.Book)
	}
	if record.HasTimestamp() {
		t.Errorf("expected no timestamp, got %v", record.Timestamp)
	}
}

func TestParseVocabDB_MissingTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture database: %v", err)
	}
	mustExec(t, db, "CREATE TABLE WORDS (id TEXT, stem TEXT, timestamp INTEGER)")
	if err := db.Close(); err != nil {
		t.Fatalf("close fixture database: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture database: %v", err)
	}

	if _, err := ParseVocabDB(data); err == nil {
		t.Fatal("expected error for database missing required tables")
	}
}

func TestParseVocabDB_NotADatabase(t *testing.T) {
	if _, err := ParseVocabDB([]byte("this is not a sqlite file")); err == nil {
		t.Fatal("expected error for a non-database buffer")
	}
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}
