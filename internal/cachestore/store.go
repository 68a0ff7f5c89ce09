// Package cachestore persists resolved definitions in a local SQLite
// database so repeated export runs skip the network for known words.
package cachestore

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CachedDefinition is one resolved (language, word) pair. An empty
// Definition is a valid negative result.
type CachedDefinition struct {
	ID         uint   `gorm:"primarykey"`
	Language   string `gorm:"size:8;uniqueIndex:idx_lang_word;not null"`
	Word       string `gorm:"uniqueIndex:idx_lang_word;not null"`
	Definition string
	CreatedAt  time.Time
}

// Store wraps the definitions database.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the cache database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	if err := db.AutoMigrate(&CachedDefinition{}); err != nil {
		return nil, fmt.Errorf("migrate cache database: %w", err)
	}

	return &Store{db: db}, nil
}

// Get returns the cached definition for (language, word) and whether one exists.
func (s *Store) Get(language, word string) (string, bool, error) {
	var cached CachedDefinition
	err := s.db.Where("language = ? AND word = ?", language, word).First(&cached).Error
	if err == gorm.ErrRecordNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return cached.Definition, true, nil
}

// Put stores or refreshes the definition for (language, word).
func (s *Store) Put(language, word, definition string) error {
	return s.db.
		Where(CachedDefinition{Language: language, Word: word}).
		Assign(map[string]any{"definition": definition, "created_at": time.Now()}).
		FirstOrCreate(&CachedDefinition{}).Error
}

// Prune removes entries older than the given retention period and returns
// the number of rows deleted.
func (s *Store) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := s.db.Where("created_at < ?", cutoff).Delete(&CachedDefinition{})
	return result.RowsAffected, result.Error
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
