package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/castlegate/castlegate-backend/internal/model"
)

func TestCreateGameLifecycle(t *testing.T) {
	gm := NewGameManager(10 * time.Minute)

	if err := gm.CreateGame("g1"); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := gm.CreateGame("g1"); !errors.Is(err, ErrGameExists) {
		t.Errorf("duplicate CreateGame = %v, want ErrGameExists", err)
	}

	game, err := gm.GetGame("g1")
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if game.ID != "g1" {
		t.Errorf("game ID = %s, want g1", game.ID)
	}
	if _, err := gm.GetGame("missing"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("GetGame(missing) = %v, want ErrGameNotFound", err)
	}

	color, err := gm.AddPlayerToGame("g1", "p1", "Ann")
	if err != nil || color != model.White {
		t.Fatalf("first join = %s, %v, want white seat", color, err)
	}
	color, err = gm.AddPlayerToGame("g1", "p2", "Ben")
	if err != nil || color != model.Black {
		t.Fatalf("second join = %s, %v, want black seat", color, err)
	}
	if _, err := gm.AddPlayerToGame("g1", "p3", "Eve"); !errors.Is(err, model.ErrGameFull) {
		t.Errorf("third join = %v, want ErrGameFull", err)
	}
	if _, err := gm.AddPlayerToGame("missing", "p1", ""); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("join missing game = %v, want ErrGameNotFound", err)
	}

	gm.RemoveGame("g1")
	if _, err := gm.GetGame("g1"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("GetGame after remove = %v, want ErrGameNotFound", err)
	}
}

func TestMatchmakingPairsPlayers(t *testing.T) {
	gm := NewGameManager(time.Minute)

	ch1 := make(chan string, 1)
	ch2 := make(chan string, 1)
	gm.RegisterMatchmakingChannel("p1", ch1)
	gm.RegisterMatchmakingChannel("p2", ch2)

	if err := gm.JoinMatchmaking("p1", "Ann"); err != nil {
		t.Fatalf("JoinMatchmaking: %v", err)
	}
	if err := gm.JoinMatchmaking("p1", "Ann"); !errors.Is(err, model.ErrAlreadyQueued) {
		t.Errorf("double join = %v, want ErrAlreadyQueued", err)
	}
	if err := gm.JoinMatchmaking("p2", "Ben"); err != nil {
		t.Fatalf("JoinMatchmaking: %v", err)
	}

	gm.mu.Lock()
	gm.matchPairs()
	gm.mu.Unlock()

	readEvent := func(ch chan string) model.MatchFoundEvent {
		t.Helper()
		select {
		case payload, ok := <-ch:
			if !ok {
				t.Fatal("channel closed without an event")
			}
			var ev model.MatchFoundEvent
			if err := json.Unmarshal([]byte(payload), &ev); err != nil {
				t.Fatalf("bad event payload %q: %v", payload, err)
			}
			return ev
		default:
			t.Fatal("no match event delivered")
		}
		return model.MatchFoundEvent{}
	}

	ev1 := readEvent(ch1)
	ev2 := readEvent(ch2)

	if ev1.GameID == "" || ev1.GameID != ev2.GameID {
		t.Fatalf("players sent to different games: %q vs %q", ev1.GameID, ev2.GameID)
	}
	if ev1.Color != model.White || ev2.Color != model.Black {
		t.Errorf("colors = %s/%s, want white/black in queue order", ev1.Color, ev2.Color)
	}

	// channels are closed once the event is delivered
	if _, ok := <-ch1; ok {
		t.Error("channel still open after delivery")
	}

	game, err := gm.GetGame(ev1.GameID)
	if err != nil {
		t.Fatalf("paired game missing: %v", err)
	}
	white, black := game.Seats()
	if white.Name != "Ann" || black.Name != "Ben" {
		t.Errorf("seats = %s/%s, want Ann/Ben", white.Name, black.Name)
	}

	if size := gm.queue.Size(); size != 0 {
		t.Errorf("queue size after pairing = %d, want 0", size)
	}
}

func TestMatchmakingWithoutListeners(t *testing.T) {
	gm := NewGameManager(time.Minute)

	gm.JoinMatchmaking("p1", "")
	gm.JoinMatchmaking("p2", "")

	gm.mu.Lock()
	gm.matchPairs()
	gm.mu.Unlock()

	// The game exists even though nobody heard about it; players can
	// still find it over REST.
	gm.mu.RLock()
	games := len(gm.games)
	gm.mu.RUnlock()
	if games != 1 {
		t.Errorf("live games = %d, want 1", games)
	}
}

func TestRegisterReplacesChannel(t *testing.T) {
	gm := NewGameManager(time.Minute)

	ch1 := make(chan string, 1)
	ch2 := make(chan string, 1)
	gm.RegisterMatchmakingChannel("p1", ch1)
	gm.RegisterMatchmakingChannel("p1", ch2)

	if _, ok := <-ch1; ok {
		t.Error("stale channel left open after replacement")
	}

	gm.UnregisterMatchmakingChannel("p1")
	select {
	case <-ch2:
		t.Error("unregister closed the caller's channel")
	default:
	}
}

func TestLeaveMatchmaking(t *testing.T) {
	gm := NewGameManager(time.Minute)

	gm.JoinMatchmaking("p1", "")
	gm.LeaveMatchmaking("p1")
	gm.JoinMatchmaking("p2", "")

	gm.mu.Lock()
	gm.matchPairs()
	gm.mu.Unlock()

	gm.mu.RLock()
	games := len(gm.games)
	gm.mu.RUnlock()
	if games != 0 {
		t.Errorf("lone player was paired into %d game(s)", games)
	}
	if size := gm.queue.Size(); size != 1 {
		t.Errorf("queue size = %d, want the remaining player", size)
	}
}

func TestAdoptGame(t *testing.T) {
	gm := NewGameManager(time.Minute)

	adopted := model.NewGame("restored", time.Minute)
	gm.AdoptGame(adopted)

	game, err := gm.GetGame("restored")
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if game != adopted {
		t.Error("GetGame returned a different game instance")
	}
}
