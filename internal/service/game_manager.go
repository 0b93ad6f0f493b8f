// service/game_manager.go
package service

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/castlegate/castlegate-backend/internal/model"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
)

// GameManager owns every live game plus the matchmaking queue. Two
// background loops run for its whole lifetime: one pairs queued
// players, the other burns clock time off whichever side is to move.
type GameManager struct {
	games            map[string]*model.Game
	queue            *model.Queue
	matchingChannels map[string]chan string
	initialTime      time.Duration
	mu               sync.RWMutex
}

func NewGameManager(initialTime time.Duration) *GameManager {
	gm := &GameManager{
		games:            make(map[string]*model.Game),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
		initialTime:      initialTime,
	}

	// Start matchmaking and clock processors
	go gm.processMatchmaking()
	go gm.processClocks()

	return gm
}

func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	// A superseded waiter learns about it through the close. Remove the
	// entry first so no send can land in between.
	if existingCh, exists := gm.matchingChannels[playerID]; exists {
		logrus.WithField("player", playerID).Debug("replacing matchmaking channel")
		delete(gm.matchingChannels, playerID)
		close(existingCh)
	}

	gm.matchingChannels[playerID] = ch
	return nil
}

func (gm *GameManager) UnregisterMatchmakingChannel(playerID string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	// Dropping the entry is enough: only sendMatchEvent closes channels,
	// and it can no longer find this one.
	delete(gm.matchingChannels, playerID)
}

// LeaveMatchmaking drops a player from the queue before a pair forms.
func (gm *GameManager) LeaveMatchmaking(playerID string) {
	gm.queue.RemovePlayer(playerID)
}

func (gm *GameManager) processMatchmaking() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		gm.mu.Lock()
		gm.matchPairs()
		gm.mu.Unlock()
	}
}

// matchPairs drains the queue two players at a time. Callers hold the
// manager lock.
func (gm *GameManager) matchPairs() {
	for {
		player1, player2, ok := gm.queue.NextPair()
		if !ok {
			return
		}

		gameID := uuid.New().String()
		game := model.NewGame(gameID, gm.initialTime)

		p1Color, err := game.AddPlayer(player1.ID, player1.Name)
		if err != nil {
			logrus.Warnf("seat player %s: %v", player1.ID, err)
			continue
		}
		p2Color, err := game.AddPlayer(player2.ID, player2.Name)
		if err != nil {
			logrus.Warnf("seat player %s: %v", player2.ID, err)
			continue
		}
		gm.games[gameID] = game

		logrus.WithFields(logrus.Fields{
			"game":  gameID,
			"white": player1.ID,
			"black": player2.ID,
		}).Info("matched players")

		// Tell both players where their game lives. A player whose
		// channel is gone or full simply misses the event; the game
		// still exists and can be joined through the REST surface.
		gm.sendMatchEvent(player1.ID, model.MatchFoundEvent{GameID: gameID, Color: p1Color})
		gm.sendMatchEvent(player2.ID, model.MatchFoundEvent{GameID: gameID, Color: p2Color})
	}
}

// sendMatchEvent delivers a match notification and cleans up the
// player's channel. Callers hold the manager lock.
func (gm *GameManager) sendMatchEvent(playerID string, event model.MatchFoundEvent) bool {
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		return false
	}

	select {
	case ch <- mustJSON(event):
		// Remove the channel from the map, then close it
		delete(gm.matchingChannels, playerID)
		close(ch)
		return true
	default:
		logrus.WithField("player", playerID).Warn("match event dropped, channel full")
		return false
	}
}

// processClocks ticks every live game once per second. DecrementClock
// flips the status to TIMEOUT on its own when a flag falls.
func (gm *GameManager) processClocks() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		gm.mu.RLock()
		running := make([]*model.Game, 0, len(gm.games))
		for _, game := range gm.games {
			if game.ClockRunning() {
				running = append(running, game)
			}
		}
		gm.mu.RUnlock()

		for _, game := range running {
			game.DecrementClock(time.Second)
		}
	}
}

// Helper function for JSON marshaling
func mustJSON(v interface{}) string {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

func (gm *GameManager) CreateGame(gameID string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return ErrGameExists
	}

	gm.games[gameID] = model.NewGame(gameID, gm.initialTime)
	return nil
}

// AdoptGame installs an already-built game, replacing any live game
// under the same ID. Restores from storage arrive through here.
func (gm *GameManager) AdoptGame(game *model.Game) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	gm.games[game.ID] = game
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}

	return game, nil
}

// RemoveGame drops a game from the live set, e.g. after it has been
// saved or abandoned.
func (gm *GameManager) RemoveGame(gameID string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	delete(gm.games, gameID)
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string, name string) (model.Color, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return "", err
	}

	return game.AddPlayer(playerID, name)
}

func (gm *GameManager) JoinMatchmaking(playerID string, name string) error {
	return gm.queue.AddPlayer(playerID, name)
}

func (gm *GameManager) Snapshot(gameID string) (model.ClientState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.ClientState{}, err
	}

	return game.Snapshot(), nil
}

func (gm *GameManager) RegisterConnection(gameID string, playerID string, conn *websocket.Conn) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}

	return game.RegisterConnection(playerID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID string, playerID string) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return
	}

	game.UnregisterConnection(playerID)
}
