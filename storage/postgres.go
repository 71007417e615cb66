package storage

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

type PSQLStorage struct {
	sqlStorage
}

// Creates a new Postgres Storage using the provided connection string.
//
// If clearDB is true, the database will be cleared on startup. You
// probably only want this for testing.
func NewPSQLStorage(connStr string, clearDB bool) (*PSQLStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if clearDB {
		for _, table := range append([]string{"feed"}, sqlFeedTables...) {
			_, err = db.Exec("DROP TABLE IF EXISTS " + pq.QuoteIdentifier(table))
			if err != nil {
				db.Close()
				return nil, fmt.Errorf("clearing db: %w", err)
			}
		}
	}

	err = createSQLSchema(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &PSQLStorage{
		sqlStorage: sqlStorage{db: db},
	}, nil
}

func (s *PSQLStorage) Close() error {
	err := s.db.Close()
	if err != nil {
		return fmt.Errorf("failed to close db: %w", err)
	}
	return nil
}
