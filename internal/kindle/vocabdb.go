package kindle

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mrlokans/kindledeck/internal/entities"
)

// Kindle stores lookup timestamps as milliseconds since the Unix epoch.

// Tables expected in a Kindle vocab.db export
var requiredVocabTables = []string{"WORDS", "LOOKUPS", "BOOK_INFO"}

const vocabQuery = `SELECT w.stem,
       l.usage,
       w.timestamp,
       IFNULL(b.title, '')
FROM WORDS AS w
LEFT JOIN LOOKUPS AS l ON w.id = l.word_key
LEFT JOIN BOOK_INFO AS b ON l.book_key = b.id;`

// ParseVocabDB extracts vocabulary records from a Kindle vocab.db buffer.
// The buffer is staged to a temporary file and opened read-only; the word,
// lookup and book tables are left-joined so words without a recorded usage
// or book still come through with empty context/book fields.
func ParseVocabDB(data []byte) ([]entities.VocabRecord, error) {
	tempDir, err := os.MkdirTemp("", "vocab-db-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "vocab.db")
	if err := os.WriteFile(dbPath, data, 0600); err != nil {
		return nil, fmt.Errorf("stage vocab database: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open vocab database: %w", err)
	}
	defer db.Close()

	if err := validateVocabDatabase(db); err != nil {
		return nil, err
	}

	rows, err := db.Query(vocabQuery)
	if err != nil {
		return nil, fmt.Errorf("query vocab database: %w", err)
	}
	defer rows.Close()

	var records []entities.VocabRecord
	for rows.Next() {
		var (
			stem  string
			usage sql.NullString
			ts    sql.NullInt64
			title string
		)
		if err := rows.Scan(&stem, &usage, &ts, &title); err != nil {
			return nil, fmt.Errorf("scan vocab row: %w", err)
		}

		word := strings.TrimSpace(stem)
		if word == "" {
			continue
		}

		record := entities.VocabRecord{
			Word:    word,
			Context: usage.String,
			Book:    title,
		}
		if ts.Valid && ts.Int64 > 0 {
			record.Timestamp = time.UnixMilli(ts.Int64).UTC()
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read vocab rows: %w", err)
	}

	return records, nil
}

// validateVocabDatabase verifies the buffer is a readable SQLite database
// containing the Kindle vocabulary schema.
func validateVocabDatabase(db *sql.DB) error {
	for _, table := range requiredVocabTables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err == sql.ErrNoRows {
			return fmt.Errorf("not a Kindle vocabulary database: missing table %s", table)
		}
		if err != nil {
			return fmt.Errorf("inspect vocab database: %w", err)
		}
	}
	return nil
}
