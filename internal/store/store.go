// Package store persists games and user accounts in a local BadgerDB.
package store

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/castlegate/castlegate-backend/internal/model"
)

// Key prefixes keep the record families apart in the shared keyspace.
const (
	gamePrefix = "game:"
	userPrefix = "user:"
)

// ErrNotFound is returned when no record exists under the requested key.
var ErrNotFound = errors.New("record not found")

// SavedSeat captures one side of a saved game.
type SavedSeat struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Color model.Color `json:"color"`
}

// GameRecord is the full persisted form of a game: both seats, every
// snapshot row, the coordinate history and the rendered PGN.
type GameRecord struct {
	ID            string           `json:"id"`
	White         SavedSeat        `json:"white"`
	Black         SavedSeat        `json:"black"`
	Plies         []model.SavedPly `json:"plies"`
	HistoryString string           `json:"historyString"`
	PGN           string           `json:"pgn"`
	Status        string           `json:"status"`
	SavedAt       time.Time        `json:"savedAt"`
}

// GameSummary is the listing row for saved games.
type GameSummary struct {
	ID      string    `json:"id"`
	White   string    `json:"white"`
	Black   string    `json:"black"`
	Status  string    `json:"status"`
	SavedAt time.Time `json:"savedAt"`
}

// UserRecord is a registered account with its lifetime results.
type UserRecord struct {
	Name         string    `json:"name"`
	PasswordHash []byte    `json:"passwordHash"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	Draws        int       `json:"draws"`
	Games        []string  `json:"games"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store wraps BadgerDB for persistent storage.
type Store struct {
	db *badger.DB
}

// Open opens or creates the database under dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (s *Store) get(key string, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}

// PutGame writes a game record, replacing any previous save of the
// same game.
func (s *Store) PutGame(rec GameRecord) error {
	rec.SavedAt = time.Now()
	return s.put(gamePrefix+rec.ID, rec)
}

// GetGame loads a saved game by ID.
func (s *Store) GetGame(id string) (GameRecord, error) {
	var rec GameRecord
	err := s.get(gamePrefix+id, &rec)
	return rec, err
}

// DeleteGame removes a saved game. Missing records are not an error.
func (s *Store) DeleteGame(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(gamePrefix + id))
	})
}

// ListGames returns a summary row for every saved game.
func (s *Store) ListGames() ([]GameSummary, error) {
	var summaries []GameSummary

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(gamePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec GameRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			summaries = append(summaries, GameSummary{
				ID:      rec.ID,
				White:   rec.White.Name,
				Black:   rec.Black.Name,
				Status:  rec.Status,
				SavedAt: rec.SavedAt,
			})
		}
		return nil
	})

	return summaries, err
}

// PutUser writes a user record keyed by its lowercased name.
func (s *Store) PutUser(rec UserRecord) error {
	return s.put(userPrefix+strings.ToLower(rec.Name), rec)
}

// GetUser loads a user by name. The lookup is case-insensitive.
func (s *Store) GetUser(name string) (UserRecord, error) {
	var rec UserRecord
	err := s.get(userPrefix+strings.ToLower(name), &rec)
	return rec, err
}
