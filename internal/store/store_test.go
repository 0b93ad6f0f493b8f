package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/castlegate/castlegate-backend/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleGame(id string) GameRecord {
	stamp := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	return GameRecord{
		ID:    id,
		White: SavedSeat{ID: "pw", Name: "Walter", Color: model.White},
		Black: SavedSeat{ID: "pb", Name: "Bella", Color: model.Black},
		Plies: []model.SavedPly{
			{
				Placement:     "r-n-b-q-k-b-n-r-\n",
				TurnNumber:    1,
				Status:        "ONGOING",
				Move:          "e2e4",
				Color:         model.White,
				Timestamp:     stamp,
				WhiteTimeLeft: 600000,
				BlackTimeLeft: 600000,
			},
		},
		HistoryString: "e2e4 ",
		PGN:           "[Result \"*\"]\n\n1. e4 \n*\n",
		Status:        "ONGOING",
	}
}

func TestGameRoundTrip(t *testing.T) {
	st := openTestStore(t)

	rec := sampleGame("g1")
	if err := st.PutGame(rec); err != nil {
		t.Fatalf("PutGame: %v", err)
	}

	got, err := st.GetGame("g1")
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if got.SavedAt.IsZero() {
		t.Error("SavedAt not stamped on save")
	}
	if diff := cmp.Diff(rec, got, cmpopts.IgnoreFields(GameRecord{}, "SavedAt")); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGetGameMissing(t *testing.T) {
	st := openTestStore(t)

	if _, err := st.GetGame("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetGame(missing) = %v, want ErrNotFound", err)
	}
}

func TestListGames(t *testing.T) {
	st := openTestStore(t)

	if games, err := st.ListGames(); err != nil || len(games) != 0 {
		t.Fatalf("ListGames on empty store = %v, %v", games, err)
	}

	for _, id := range []string{"g1", "g2"} {
		if err := st.PutGame(sampleGame(id)); err != nil {
			t.Fatalf("PutGame(%s): %v", id, err)
		}
	}

	games, err := st.ListGames()
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("ListGames returned %d rows, want 2", len(games))
	}
	for _, g := range games {
		if g.White != "Walter" || g.Black != "Bella" || g.Status != "ONGOING" {
			t.Errorf("summary %s has wrong fields: %+v", g.ID, g)
		}
		if g.SavedAt.IsZero() {
			t.Errorf("summary %s missing SavedAt", g.ID)
		}
	}
}

func TestDeleteGame(t *testing.T) {
	st := openTestStore(t)

	if err := st.PutGame(sampleGame("g1")); err != nil {
		t.Fatalf("PutGame: %v", err)
	}
	if err := st.DeleteGame("g1"); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}
	if _, err := st.GetGame("g1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetGame after delete = %v, want ErrNotFound", err)
	}

	if err := st.DeleteGame("never-existed"); err != nil {
		t.Errorf("DeleteGame(missing) = %v, want nil", err)
	}
}

func TestUserRoundTrip(t *testing.T) {
	st := openTestStore(t)

	rec := UserRecord{
		Name:         "Walter",
		PasswordHash: []byte("not-a-real-hash"),
		Wins:         3,
		Losses:       1,
		Draws:        2,
		Games:        []string{"g1", "g2"},
		CreatedAt:    time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC),
	}
	if err := st.PutUser(rec); err != nil {
		t.Fatalf("PutUser: %v", err)
	}

	// lookups are case-insensitive
	got, err := st.GetUser("wAlTeR")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := st.GetUser("nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser(nobody) = %v, want ErrNotFound", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()

	st, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := st.PutGame(sampleGame("g1")); err != nil {
		t.Fatalf("PutGame: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	if _, err := st.GetGame("g1"); err != nil {
		t.Errorf("GetGame after reopen: %v", err)
	}
}
