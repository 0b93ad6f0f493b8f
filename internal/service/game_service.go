package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/castlegate/castlegate-backend/internal/engine"
	"github.com/castlegate/castlegate-backend/internal/model"
	"github.com/castlegate/castlegate-backend/internal/pgn"
	"github.com/castlegate/castlegate-backend/internal/store"
)

// ErrSavePending rejects saves while a pawn sits unpromoted; the saved
// placement format has no way to express the parked ply.
var ErrSavePending = errors.New("cannot save with a promotion pending")

// GameService is the orchestration layer between the transport
// controllers and the game registry, storage, and the engine process.
type GameService struct {
	gameManager *GameManager
	store       *store.Store
	users       *UserService

	engineCmd string
	movetime  time.Duration

	engineMu sync.Mutex
	engine   *engine.Engine
}

func NewGameService(gameManager *GameManager, st *store.Store, users *UserService, engineCmd string, movetime time.Duration) *GameService {
	return &GameService{
		gameManager: gameManager,
		store:       st,
		users:       users,
		engineCmd:   engineCmd,
		movetime:    movetime,
	}
}

func (gs *GameService) CreateGame() (string, error) {
	gameID := uuid.New().String()

	if err := gs.gameManager.CreateGame(gameID); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	return gameID, nil
}

func (gs *GameService) JoinGame(gameID string, playerID string, name string) (model.Color, error) {
	return gs.gameManager.AddPlayerToGame(gameID, playerID, name)
}

func (gs *GameService) JoinMatchmaking(playerID string, name string) error {
	return gs.gameManager.JoinMatchmaking(playerID, name)
}

func (gs *GameService) LeaveMatchmaking(playerID string) {
	gs.gameManager.LeaveMatchmaking(playerID)
}

func (gs *GameService) GetGameState(gameID string) (model.ClientState, error) {
	return gs.gameManager.Snapshot(gameID)
}

// LegalMoves lists the destinations the piece on pos may actually play.
func (gs *GameService) LegalMoves(gameID string, pos model.Position) ([]model.Position, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return nil, err
	}

	return game.PossibleMoves(pos), nil
}

func (gs *GameService) HandleMove(gameID string, playerID string, move model.WireMove) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}

	return game.MakeMove(playerID, move.Start, move.End)
}

func (gs *GameService) HandlePromotion(gameID string, playerID string, promotion model.WirePromotion) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}

	return game.PromotePawn(playerID, promotion.Position, promotion.Piece)
}

func (gs *GameService) HandleResign(gameID string, playerID string) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}

	return game.Resign(playerID)
}

func (gs *GameService) HandleDrawOffer(gameID string, playerID string) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}

	return game.OfferDraw(playerID)
}

func (gs *GameService) HandleDrawAnswer(gameID string, playerID string, accept bool) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}

	return game.ResolveDraw(playerID, accept)
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn *websocket.Conn) error {
	return gs.gameManager.RegisterConnection(gameID, playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string) {
	gs.gameManager.UnregisterConnection(gameID, playerID)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	return gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID)
}

// SaveGame persists a live game: seats, every snapshot row, the
// coordinate history and a rendered PGN. Finished games also fold
// their result into the seats' account statistics.
func (gs *GameService) SaveGame(gameID string) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	if game.PromotionPending() != nil {
		return ErrSavePending
	}

	white, black := game.Seats()
	status := game.Status()
	rec := store.GameRecord{
		ID:            game.ID,
		White:         store.SavedSeat{ID: white.ID, Name: white.Name, Color: model.White},
		Black:         store.SavedSeat{ID: black.ID, Name: black.Name, Color: model.Black},
		Plies:         game.SavedPlies(),
		HistoryString: game.HistoryString(),
		PGN:           gs.renderPGN(game),
		Status:        string(status),
	}
	if err := gs.store.PutGame(rec); err != nil {
		return fmt.Errorf("save game %s: %w", gameID, err)
	}

	if gs.users != nil && status.Terminal() {
		var winnerColor model.Color
		if winner := game.Winner(); winner != nil {
			winnerColor = winner.Color
		}
		if err := gs.users.RecordResult(gameID, status, winnerColor, white.Name, black.Name); err != nil {
			return fmt.Errorf("record result for %s: %w", gameID, err)
		}
	}
	return nil
}

// LoadGame pulls a saved game out of storage and installs it as a live
// game, replacing any game already running under that ID.
func (gs *GameService) LoadGame(gameID string) error {
	rec, err := gs.store.GetGame(gameID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrGameNotFound
	}
	if err != nil {
		return err
	}

	white := model.NewPlayer(rec.White.ID, rec.White.Name, model.White, 0)
	black := model.NewPlayer(rec.Black.ID, rec.Black.Name, model.Black, 0)
	game, err := model.RestoreGame(rec.ID, white, black, rec.Plies, rec.HistoryString)
	if err != nil {
		return err
	}

	gs.gameManager.AdoptGame(game)
	return nil
}

// SavedGames lists everything in storage for a load screen.
func (gs *GameService) SavedGames() ([]store.GameSummary, error) {
	return gs.store.ListGames()
}

// PGN renders a live game, falling back to the stored rendering when
// the game is no longer in memory.
func (gs *GameService) PGN(gameID string) (string, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err == nil {
		return gs.renderPGN(game), nil
	}

	rec, err := gs.store.GetGame(gameID)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrGameNotFound
	}
	if err != nil {
		return "", err
	}
	return rec.PGN, nil
}

func (gs *GameService) renderPGN(game *model.Game) string {
	white, black := game.Seats()
	var winnerColor model.Color
	if winner := game.Winner(); winner != nil {
		winnerColor = winner.Color
	}
	return pgn.Render(white.Name, black.Name, game.Status(), winnerColor, game.Metadata())
}

// SuggestMove asks the engine for a move in the game's current
// position. The engine process starts on first use and then sticks
// around.
func (gs *GameService) SuggestMove(gameID string, difficulty string) (string, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return "", err
	}
	if game.Status().Terminal() {
		return "", model.ErrGameOver
	}

	level := engine.DifficultyHard
	if difficulty != "" {
		level, err = engine.ParseDifficulty(difficulty)
		if err != nil {
			return "", err
		}
	}

	eng, err := gs.ensureEngine()
	if err != nil {
		return "", err
	}

	return eng.BestMove(game.HistoryString(), level, gs.movetime)
}

func (gs *GameService) ensureEngine() (*engine.Engine, error) {
	gs.engineMu.Lock()
	defer gs.engineMu.Unlock()

	if gs.engine != nil {
		return gs.engine, nil
	}

	eng, err := engine.Start(gs.engineCmd)
	if err != nil {
		return nil, fmt.Errorf("start engine %q: %w", gs.engineCmd, err)
	}
	gs.engine = eng
	return eng, nil
}

// Close shuts down the engine process if one was started.
func (gs *GameService) Close() {
	gs.engineMu.Lock()
	defer gs.engineMu.Unlock()

	if gs.engine != nil {
		gs.engine.Quit()
		gs.engine = nil
	}
}
