package controller

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"github.com/castlegate/castlegate-backend/internal/middleware"
	"github.com/castlegate/castlegate-backend/internal/model"
	"github.com/castlegate/castlegate-backend/internal/service"
	"github.com/castlegate/castlegate-backend/internal/ws"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// HandleConnection is called when a new WebSocket connection is established
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	// Extract game ID and player ID from context
	gameID := c.Params("gameId")
	playerID := c.Locals(middleware.PlayerIDKey).(string)

	log := logrus.WithFields(logrus.Fields{"game": gameID, "player": playerID})

	// Register this connection with the game
	if err := wsc.gameService.RegisterConnection(gameID, playerID, c); err != nil {
		log.Warnf("failed to register connection: %v", err)
		c.Close()
		return
	}
	log.Debug("websocket connected")

	// Start message handling loop
	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debugf("read error: %v", err)
			break
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Debugf("parse error: %v", err)
			continue
		}

		if err := wsc.handleMessage(gameID, playerID, msg); err != nil {
			log.Debugf("handle %s: %v", msg.Type, err)
			wsc.sendError(c, err.Error())
		}
	}

	// Clean up when connection closes
	wsc.gameService.UnregisterConnection(gameID, playerID)
	log.Debug("websocket disconnected")
}

// Handle different types of incoming messages
func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.WireMove
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return err
		}
		return wsc.gameService.HandleMove(gameID, playerID, move)

	case ws.MessageTypePromote:
		var promotion model.WirePromotion
		if err := json.Unmarshal(msg.Payload, &promotion); err != nil {
			return err
		}
		return wsc.gameService.HandlePromotion(gameID, playerID, promotion)

	case ws.MessageTypeResign:
		return wsc.gameService.HandleResign(gameID, playerID)

	case ws.MessageTypeDrawOffer:
		return wsc.gameService.HandleDrawOffer(gameID, playerID)

	case ws.MessageTypeDrawAnswer:
		var answer model.WireDrawAnswer
		if err := json.Unmarshal(msg.Payload, &answer); err != nil {
			return err
		}
		return wsc.gameService.HandleDrawAnswer(gameID, playerID, answer.Accept)

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

// Helper method to send error messages
func (wsc *WebSocketController) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(ws.NewErrorMessage(errorMsg))
}
