package service

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/castlegate/castlegate-backend/internal/model"
	"github.com/castlegate/castlegate-backend/internal/store"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrBadLogin     = errors.New("invalid credentials")
)

// UserService manages registered accounts and their lifetime results.
// Nothing forces players to register; anonymous seats simply collect
// no statistics.
type UserService struct {
	store *store.Store
}

func NewUserService(st *store.Store) *UserService {
	return &UserService{store: st}
}

func (us *UserService) Register(name, password string) error {
	if name == "" || password == "" {
		return errors.New("name and password are required")
	}

	if _, err := us.store.GetUser(name); err == nil {
		return ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return us.store.PutUser(store.UserRecord{
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	})
}

// Authenticate checks a name and password pair. Unknown names and bad
// passwords fail the same way.
func (us *UserService) Authenticate(name, password string) error {
	rec, err := us.store.GetUser(name)
	if errors.Is(err, store.ErrNotFound) {
		return ErrBadLogin
	}
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(password)) != nil {
		return ErrBadLogin
	}
	return nil
}

// UserStats is the public slice of an account.
type UserStats struct {
	Name   string   `json:"name"`
	Wins   int      `json:"wins"`
	Losses int      `json:"losses"`
	Draws  int      `json:"draws"`
	Games  []string `json:"games"`
}

func (us *UserService) Stats(name string) (UserStats, error) {
	rec, err := us.store.GetUser(name)
	if errors.Is(err, store.ErrNotFound) {
		return UserStats{}, ErrUserNotFound
	}
	if err != nil {
		return UserStats{}, err
	}

	return UserStats{
		Name:   rec.Name,
		Wins:   rec.Wins,
		Losses: rec.Losses,
		Draws:  rec.Draws,
		Games:  rec.Games,
	}, nil
}

// RecordResult folds a decided game into both seats' lifetime totals.
// Seat names without a registered account are skipped, and a game is
// never counted twice for the same account.
func (us *UserService) RecordResult(gameID string, status model.GameStatus, winner model.Color, white, black string) error {
	if !status.Terminal() {
		return nil
	}
	draw := status == model.StatusDraw || status == model.StatusStalemate

	record := func(name string, color model.Color) error {
		rec, err := us.store.GetUser(name)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		for _, id := range rec.Games {
			if id == gameID {
				return nil
			}
		}
		rec.Games = append(rec.Games, gameID)

		switch {
		case draw:
			rec.Draws++
		case winner == color:
			rec.Wins++
		default:
			rec.Losses++
		}
		return us.store.PutUser(rec)
	}

	if err := record(white, model.White); err != nil {
		return err
	}
	return record(black, model.Black)
}
