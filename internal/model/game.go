package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/castlegate/castlegate-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

var (
	ErrGameOver         = errors.New("game is already over")
	ErrGameFull         = errors.New("game is full")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrNotInGame        = errors.New("player not in this game")
	ErrNoPiece          = errors.New("no piece on the start square")
	ErrIllegalMove      = errors.New("illegal move")
	ErrPromotionPending = errors.New("a promotion is pending")
	ErrNoPromotion      = errors.New("no promotion pending on that square")
	ErrBadPromotion     = errors.New("invalid promotion piece")
	ErrNoDrawPrompt     = errors.New("no draw to resolve")
)

// GameConnections is the set of live sockets watching one game.
type GameConnections struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn // playerID -> connection
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]*websocket.Conn),
	}
}

// Game owns a single game's state and its observers. All rule decisions
// happen behind its mutex; everything observable leaves as a copy.
type Game struct {
	ID          string
	mu          sync.Mutex
	state       *GameState
	connections *GameConnections
}

func NewGame(id string, initialTime time.Duration) *Game {
	white := NewPlayer("", "", White, initialTime)
	black := NewPlayer("", "", Black, initialTime)
	return &Game{
		ID:          id,
		state:       newGameState(white, black),
		connections: NewGameConnections(),
	}
}

// RestoreGame rebuilds a saved game. The seats arrive fully formed from
// the storage layer; the snapshot rows and history string refill the rest.
func RestoreGame(id string, white, black *Player, plies []SavedPly, historyString string) (*Game, error) {
	g := &Game{
		ID:          id,
		state:       newGameState(white, black),
		connections: NewGameConnections(),
	}
	if err := g.state.restore(plies, historyString); err != nil {
		return nil, fmt.Errorf("restore game %s: %w", id, err)
	}
	return g, nil
}

// AddPlayer seats playerID in the first open seat and returns its colour.
func (g *Game) AddPlayer(playerID, name string) (Color, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if name == "" {
		name = playerID
	}
	white := g.state.playerByColor(White)
	black := g.state.playerByColor(Black)
	if white.ID == "" {
		white.ID = playerID
		white.Name = name
		return White, nil
	}
	if black.ID == "" {
		black.ID = playerID
		black.Name = name
		return Black, nil
	}
	return "", ErrGameFull
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.isPlayerInGame(playerID)
}

func (g *Game) isPlayerInGame(playerID string) bool {
	return playerID != "" && g.state.playerByID(playerID) != nil
}

func (g *Game) CanSpectate() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canSpectate()
}

func (g *Game) canSpectate() bool {
	return g.state.playerByColor(White).ID == "" || g.state.playerByColor(Black).ID == ""
}

// MakeMove executes playerID's ply from start to end. A game waiting on
// a promotion refuses every other move until the piece is chosen.
func (g *Game) MakeMove(playerID string, start, end Position) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.status.Terminal() {
		return ErrGameOver
	}
	if g.state.promotionPending != nil {
		return ErrPromotionPending
	}
	if !g.isSeatHolder(playerID) {
		return ErrNotYourTurn
	}
	if err := g.makeMove(start, end); err != nil {
		return err
	}
	go g.broadcastState()
	return nil
}

// PromotePawn swaps the parked pawn for the chosen piece and finishes
// the deferred half of the ply.
func (g *Game) PromotePawn(playerID string, pos Position, t PieceType) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.status.Terminal() {
		return ErrGameOver
	}
	if g.state.promotionPending == nil || *g.state.promotionPending != pos {
		return ErrNoPromotion
	}
	if !g.isSeatHolder(playerID) {
		return ErrNotYourTurn
	}
	switch t {
	case Queen, Rook, Bishop, Knight:
	default:
		return ErrBadPromotion
	}

	st := g.state
	pawn := st.board.PieceAt(pos)
	if pawn == nil || pawn.Type != Pawn || pawn.Color != st.currentPlayer.Color {
		return ErrNoPromotion
	}
	promoted := newPiece(pawn.Color, pos, t)
	promoted.HasMoved = true
	st.board.PlacePiece(pos, promoted)
	st.stampPromotion(t)
	st.promotionPending = nil
	g.completeTurn()
	go g.broadcastState()
	return nil
}

// Resign ends the game in the opponent's favour.
func (g *Game) Resign(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.status.Terminal() {
		return ErrGameOver
	}
	player := g.state.playerByID(playerID)
	if player == nil {
		return ErrNotInGame
	}
	player.Resigning = true
	g.state.setStatus(StatusResign)
	go g.broadcastState()
	return nil
}

// OfferDraw records playerID's draw offer for the opponent to answer.
func (g *Game) OfferDraw(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.status.Terminal() {
		return ErrGameOver
	}
	if !g.isParticipant(playerID) {
		return ErrNotInGame
	}
	g.state.drawOfferedBy = playerID
	go g.broadcastState()
	return nil
}

// ResolveDraw answers an open draw prompt, whether it came from the
// repetition and move-counter layers or from an opponent's offer.
// Accepting ends the game; declining puts the status back to whatever
// the position says.
func (g *Game) ResolveDraw(playerID string, accept bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.status.Terminal() {
		return ErrGameOver
	}
	if g.state.status != StatusPromptDraw && g.state.drawOfferedBy == "" {
		return ErrNoDrawPrompt
	}
	if !g.isParticipant(playerID) {
		return ErrNotInGame
	}
	g.state.drawOfferedBy = ""
	if accept {
		g.state.setStatus(StatusDraw)
	} else if g.isKingInCheck(g.state.currentPlayer.Color) {
		g.state.setStatus(StatusCheck)
	} else {
		g.state.setStatus(StatusOngoing)
	}
	go g.broadcastState()
	return nil
}

// DecrementClock burns d off the current player's clock. The session
// layer drives this once per second while the game is live; a clock
// reaching zero ends the game on the spot.
func (g *Game) DecrementClock(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.status.Terminal() {
		return
	}
	g.state.currentPlayer.DecrementTime(d)
	if g.state.currentPlayer.OutOfTime() {
		g.state.setStatus(StatusTimeout)
		go g.broadcastState()
	}
}

// ClockRunning reports whether the side to move is actually burning
// time: both seats claimed, at least one ply played and the game still
// undecided. Games waiting for an opponent or a first move keep their
// full allotment.
func (g *Game) ClockRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.status.Terminal() {
		return false
	}
	if g.state.currentPlayer.ID == "" || g.state.opponentPlayer.ID == "" {
		return false
	}
	return len(g.state.history) > 0
}

// isSeatHolder accepts the acting player when the current seat is
// unclaimed (local play) or claimed by them.
func (g *Game) isSeatHolder(playerID string) bool {
	return g.state.currentPlayer.ID == "" || g.state.currentPlayer.ID == playerID
}

// isParticipant is the looser membership test for games whose seats may
// not be claimed yet.
func (g *Game) isParticipant(playerID string) bool {
	if g.state.currentPlayer.ID == "" && g.state.opponentPlayer.ID == "" {
		return true
	}
	return g.state.playerByID(playerID) != nil
}

// PossibleMoves lists the legal targets for the piece on pos.
func (g *Game) PossibleMoves(pos Position) []Position {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.possibleMoves(pos)
}

func (g *Game) Status() GameStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.status
}

func (g *Game) TurnNumber() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.turnNumber
}

func (g *Game) HistoryString() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.historyString
}

func (g *Game) History() []Move {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Move{}, g.state.history...)
}

func (g *Game) Metadata() []BoardMetadata {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]BoardMetadata{}, g.state.metadata...)
}

// CheckPieces lists the checked king first, then every attacker, for the
// client to highlight.
func (g *Game) CheckPieces() []Position {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checkPieces()
}

// Winner returns the winning seat, or nil while the game is live or drawn.
func (g *Game) Winner() *ClientPlayer {
	g.mu.Lock()
	defer g.mu.Unlock()

	if w := g.state.winner(); w != nil {
		cw := w.client()
		return &cw
	}
	return nil
}

func (g *Game) PlayerColor(playerID string) (Color, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if p := g.state.playerByID(playerID); p != nil {
		return p.Color, true
	}
	return "", false
}

// Seats returns both seats in wire form.
func (g *Game) Seats() (white, black ClientPlayer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.playerByColor(White).client(), g.state.playerByColor(Black).client()
}

// PromotionPending returns the square waiting on a promotion choice.
func (g *Game) PromotionPending() *Position {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.promotionPending == nil {
		return nil
	}
	sq := *g.state.promotionPending
	return &sq
}

// SavedPlies renders the snapshot history in the storage layer's form.
// The clock columns carry the current remaining times; only the last row
// matters on restore.
func (g *Game) SavedPlies() []SavedPly {
	g.mu.Lock()
	defer g.mu.Unlock()

	whiteMs := g.state.playerByColor(White).Clock.TimeLeft().Milliseconds()
	blackMs := g.state.playerByColor(Black).Clock.TimeLeft().Milliseconds()
	plies := make([]SavedPly, 0, len(g.state.metadata))
	for _, row := range g.state.metadata {
		plies = append(plies, SavedPly{
			Placement:     row.Placement,
			TurnNumber:    row.TurnNumber,
			Status:        string(row.Status),
			Move:          row.Move.CoordinateNotation(),
			Color:         row.Color,
			Timestamp:     row.Timestamp,
			WhiteTimeLeft: whiteMs,
			BlackTimeLeft: blackMs,
		})
	}
	return plies
}

// ClientState is the full wire snapshot pushed to clients after every
// change.
type ClientState struct {
	Board           [][]*Piece     `json:"board"`
	ToMove          Color          `json:"toMove"`
	Status          GameStatus     `json:"status"`
	CheckPieces     []Position     `json:"checkPieces"`
	MoveHistory     []Move         `json:"moveHistory"`
	CapturedPieces  CapturedPieces `json:"capturedPieces"`
	Players         ClientSeats    `json:"players"`
	TurnNumber      int            `json:"turnNumber"`
	PromotionSquare *Position      `json:"promotionSquare"`
	LastMove        *Move          `json:"lastMove"`
	DrawOfferedBy   string         `json:"drawOfferedBy,omitempty"`
	Winner          *ClientPlayer  `json:"winner"`
}

type ClientSeats struct {
	White ClientPlayer `json:"white"`
	Black ClientPlayer `json:"black"`
}

// CapturedPieces lists what each colour has lost, in capture order.
type CapturedPieces struct {
	White []PieceType `json:"white"`
	Black []PieceType `json:"black"`
}

func (g *Game) Snapshot() ClientState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

func (g *Game) snapshot() ClientState {
	st := g.state
	cs := ClientState{
		Board:          st.board.Squares(),
		ToMove:         st.currentPlayer.Color,
		Status:         st.status,
		CheckPieces:    []Position{},
		MoveHistory:    append([]Move{}, st.history...),
		CapturedPieces: capturedFromHistory(st.history),
		Players: ClientSeats{
			White: st.playerByColor(White).client(),
			Black: st.playerByColor(Black).client(),
		},
		TurnNumber:    st.turnNumber,
		DrawOfferedBy: st.drawOfferedBy,
	}
	if st.status == StatusCheck || st.status == StatusCheckmate {
		cs.CheckPieces = g.checkPieces()
	}
	if st.promotionPending != nil {
		sq := *st.promotionPending
		cs.PromotionSquare = &sq
	}
	if len(st.history) > 0 {
		last := st.history[len(st.history)-1]
		cs.LastMove = &last
	}
	if w := st.winner(); w != nil {
		cw := w.client()
		cs.Winner = &cw
	}
	return cs
}

func capturedFromHistory(history []Move) CapturedPieces {
	cp := CapturedPieces{White: []PieceType{}, Black: []PieceType{}}
	for _, m := range history {
		if m.Captured == "" {
			continue
		}
		if m.Color == White {
			cp.Black = append(cp.Black, m.Captured)
		} else {
			cp.White = append(cp.White, m.Captured)
		}
	}
	return cp
}

// RegisterConnection attaches a socket to the game. Players already in
// the game and spectators of open games are welcome; a second socket for
// the same player is closed politely in favour of the first.
func (g *Game) RegisterConnection(playerID string, conn *websocket.Conn) error {
	g.mu.Lock()
	authorized := g.isPlayerInGame(playerID) || g.canSpectate()
	g.mu.Unlock()
	if !authorized {
		return ErrNotInGame
	}

	g.connections.mu.Lock()
	if _, exists := g.connections.connections[playerID]; exists {
		g.connections.mu.Unlock()
		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "connection already exists"),
		)
		conn.Close()
		return nil
	}
	g.connections.connections[playerID] = conn
	g.connections.mu.Unlock()
	logrus.WithFields(logrus.Fields{"game": g.ID, "player": playerID}).Debug("connection registered")

	go g.broadcastState()
	return nil
}

func (g *Game) UnregisterConnection(playerID string) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()
	delete(g.connections.connections, playerID)
}

// broadcastState pushes the current snapshot to every registered socket,
// dropping connections that fail to take it.
func (g *Game) broadcastState() {
	payload, err := json.Marshal(g.Snapshot())
	if err != nil {
		logrus.WithField("game", g.ID).Errorf("marshal state: %v", err)
		return
	}

	g.connections.mu.RLock()
	active := make(map[string]*websocket.Conn, len(g.connections.connections))
	for playerID, conn := range g.connections.connections {
		active[playerID] = conn
	}
	g.connections.mu.RUnlock()

	for playerID, conn := range active {
		err := conn.WriteJSON(ws.NewMessage(ws.MessageTypeGameState, payload))
		if err != nil {
			logrus.WithFields(logrus.Fields{"game": g.ID, "player": playerID}).Warnf("drop connection: %v", err)
			g.connections.mu.Lock()
			delete(g.connections.connections, playerID)
			g.connections.mu.Unlock()
		}
	}
}
