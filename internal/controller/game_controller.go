package controller

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/castlegate/castlegate-backend/internal/middleware"
	"github.com/castlegate/castlegate-backend/internal/model"
	"github.com/castlegate/castlegate-backend/internal/service"
	"github.com/castlegate/castlegate-backend/internal/store"
)

// matchWaitWindow bounds one long-poll for a matchmaking pairing.
const matchWaitWindow = 25 * time.Second

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

// fail translates game and service errors onto HTTP statuses.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrGameNotFound), errors.Is(err, service.ErrUserNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, model.ErrGameFull), errors.Is(err, model.ErrAlreadyQueued),
		errors.Is(err, service.ErrGameExists), errors.Is(err, service.ErrSavePending),
		errors.Is(err, service.ErrUserExists):
		status = fiber.StatusConflict
	case errors.Is(err, model.ErrNotYourTurn), errors.Is(err, model.ErrNotInGame):
		status = fiber.StatusForbidden
	case errors.Is(err, service.ErrBadLogin):
		status = fiber.StatusUnauthorized
	case errors.Is(err, model.ErrGameOver), errors.Is(err, model.ErrNoPiece),
		errors.Is(err, model.ErrIllegalMove), errors.Is(err, model.ErrPromotionPending),
		errors.Is(err, model.ErrNoPromotion), errors.Is(err, model.ErrBadPromotion),
		errors.Is(err, model.ErrNoDrawPrompt):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// joinRequest is the optional body carrying a display name.
type joinRequest struct {
	Name string `json:"name"`
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	gameID, err := gc.gameService.CreateGame()
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := c.Locals(middleware.PlayerIDKey).(string)

	var req joinRequest
	_ = c.BodyParser(&req)

	color, err := gc.gameService.JoinGame(gameID, playerID, req.Name)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	gameState, err := gc.gameService.GetGameState(gameID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(gameState)
}

// LegalMoves answers with every destination the piece on the query
// square may play.
func (gc *GameController) LegalMoves(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	pos := model.Position{
		Row: c.QueryInt("row", -1),
		Col: c.QueryInt("col", -1),
	}

	moves, err := gc.gameService.LegalMoves(gameID, pos)
	if err != nil {
		return fail(c, err)
	}
	if moves == nil {
		moves = []model.Position{}
	}

	return c.JSON(fiber.Map{
		"moves": moves,
	})
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := c.Locals(middleware.PlayerIDKey).(string)

	var move model.WireMove
	if err := c.BodyParser(&move); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid move payload",
		})
	}

	if err := gc.gameService.HandleMove(gameID, playerID, move); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Move played",
	})
}

func (gc *GameController) Promote(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := c.Locals(middleware.PlayerIDKey).(string)

	var promotion model.WirePromotion
	if err := c.BodyParser(&promotion); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid promotion payload",
		})
	}

	if err := gc.gameService.HandlePromotion(gameID, playerID, promotion); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Pawn promoted",
	})
}

func (gc *GameController) Resign(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := c.Locals(middleware.PlayerIDKey).(string)

	if err := gc.gameService.HandleResign(gameID, playerID); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Resigned",
	})
}

func (gc *GameController) OfferDraw(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := c.Locals(middleware.PlayerIDKey).(string)

	if err := gc.gameService.HandleDrawOffer(gameID, playerID); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Draw offered",
	})
}

func (gc *GameController) AnswerDraw(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := c.Locals(middleware.PlayerIDKey).(string)

	var answer model.WireDrawAnswer
	if err := c.BodyParser(&answer); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid draw payload",
		})
	}

	if err := gc.gameService.HandleDrawAnswer(gameID, playerID, answer.Accept); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Draw resolved",
	})
}

func (gc *GameController) SaveGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	if err := gc.gameService.SaveGame(gameID); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Game saved",
	})
}

// LoadGame restores a saved game into the live set and hands back its
// current state.
func (gc *GameController) LoadGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	if err := gc.gameService.LoadGame(gameID); err != nil {
		return fail(c, err)
	}

	gameState, err := gc.gameService.GetGameState(gameID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) SavedGames(c *fiber.Ctx) error {
	games, err := gc.gameService.SavedGames()
	if err != nil {
		return fail(c, err)
	}
	if games == nil {
		games = []store.GameSummary{}
	}

	return c.JSON(fiber.Map{
		"games": games,
	})
}

func (gc *GameController) PGN(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	document, err := gc.gameService.PGN(gameID)
	if err != nil {
		return fail(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(document)
}

// SuggestMove asks the engine for a move at the requested difficulty.
func (gc *GameController) SuggestMove(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	difficulty := c.Query("difficulty")

	move, err := gc.gameService.SuggestMove(gameID, difficulty)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"move": move,
	})
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	playerID := c.Locals(middleware.PlayerIDKey).(string)

	var req joinRequest
	_ = c.BodyParser(&req)

	if err := gc.gameService.JoinMatchmaking(playerID, req.Name); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "queued",
	})
}

func (gc *GameController) LeaveMatchmaking(c *fiber.Ctx) error {
	playerID := c.Locals(middleware.PlayerIDKey).(string)

	gc.gameService.LeaveMatchmaking(playerID)
	gc.gameService.UnregisterMatchmakingChannel(playerID)

	return c.JSON(fiber.Map{
		"status": "left",
	})
}

// WaitForMatch long-polls for a pairing. A 204 means no match inside
// the window; clients poll again while they want to stay queued.
func (gc *GameController) WaitForMatch(c *fiber.Ctx) error {
	playerID := c.Locals(middleware.PlayerIDKey).(string)

	ch := make(chan string, 1)
	if err := gc.gameService.RegisterMatchmakingChannel(playerID, ch); err != nil {
		return fail(c, err)
	}

	select {
	case payload, ok := <-ch:
		if !ok {
			// a newer wait call replaced this one
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "superseded by a newer wait",
			})
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(payload)

	case <-time.After(matchWaitWindow):
		gc.gameService.UnregisterMatchmakingChannel(playerID)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
