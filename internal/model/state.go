package model

import (
	"fmt"
	"strings"
	"time"
)

// BoardMetadata is the immutable snapshot row appended once per
// completed ply. Status is the classification of the position the ply
// produced, so a row renders correctly on its own.
type BoardMetadata struct {
	Placement  string     `json:"placement"`
	TurnNumber int        `json:"turnNumber"`
	Status     GameStatus `json:"status"`
	Move       Move       `json:"move"`
	Color      Color      `json:"color"`
	Timestamp  time.Time  `json:"timestamp"`
}

// GameState carries everything a single game owns between plies. The
// current and opponent seats swap after every completed ply; whoever is
// current is always the side to move.
type GameState struct {
	board          *Board
	currentPlayer  *Player
	opponentPlayer *Player

	history       []Move
	historyString string

	metadata         []BoardMetadata
	placementIndices map[string][]int

	turnNumber           int
	noCaptureOrPawnMoves int
	status               GameStatus
	promotionPending     *Position
	drawOfferedBy        string
}

func newGameState(white, black *Player) *GameState {
	return &GameState{
		board:            NewBoard(LayoutStandard),
		currentPlayer:    white,
		opponentPlayer:   black,
		history:          []Move{},
		metadata:         []BoardMetadata{},
		placementIndices: map[string][]int{},
		turnNumber:       1,
		status:           StatusOngoing,
	}
}

// switchTurns swaps the seats. The turn number advances only once the
// second player's ply completes.
func (st *GameState) switchTurns() {
	if st.currentPlayer.Color == Black {
		st.turnNumber++
	}
	st.currentPlayer, st.opponentPlayer = st.opponentPlayer, st.currentPlayer
}

func (st *GameState) addToHistory(m Move) {
	st.history = append(st.history, m)
	st.historyString += m.CoordinateNotation() + " "
}

// stampPromotion writes the chosen piece into the ply that parked on the
// last rank, fixing up the history string's final token to match.
func (st *GameState) stampPromotion(t PieceType) {
	st.history[len(st.history)-1].Promotion = t
	trimmed := strings.TrimSuffix(st.historyString, " ")
	st.historyString = trimmed + strings.ToLower(t.notation()) + " "
}

// setStatus records the classification and keeps the per-player check
// flags in line with it. Resignation flags are set by the resign path
// before the status lands here.
func (st *GameState) setStatus(s GameStatus) {
	st.status = s
	switch s {
	case StatusCheckmate, StatusCheck:
		st.currentPlayer.InCheck = true
		st.opponentPlayer.InCheck = false
	case StatusOngoing, StatusStalemate, StatusDraw:
		st.currentPlayer.InCheck = false
		st.opponentPlayer.InCheck = false
	}
}

// winner reads the result off the status and the player flags. A live or
// drawn game has no winner.
func (st *GameState) winner() *Player {
	switch st.status {
	case StatusCheckmate:
		if st.currentPlayer.InCheck {
			return st.opponentPlayer
		}
		return st.currentPlayer
	case StatusResign:
		if st.currentPlayer.Resigning {
			return st.opponentPlayer
		}
		return st.currentPlayer
	case StatusTimeout:
		if st.currentPlayer.OutOfTime() {
			return st.opponentPlayer
		}
		return st.currentPlayer
	}
	return nil
}

func (st *GameState) playerByID(id string) *Player {
	if st.currentPlayer.ID == id {
		return st.currentPlayer
	}
	if st.opponentPlayer.ID == id {
		return st.opponentPlayer
	}
	return nil
}

func (st *GameState) playerByColor(c Color) *Player {
	if st.currentPlayer.Color == c {
		return st.currentPlayer
	}
	return st.opponentPlayer
}

// SavedPly is one persisted snapshot row, the textual twin of
// BoardMetadata that the storage layer exchanges.
type SavedPly struct {
	Placement     string    `json:"placement"`
	TurnNumber    int       `json:"turnNumber"`
	Status        string    `json:"status"`
	Move          string    `json:"move"`
	Color         Color     `json:"color"`
	Timestamp     time.Time `json:"timestamp"`
	WhiteTimeLeft int64     `json:"whiteTimeLeft"` // milliseconds
	BlackTimeLeft int64     `json:"blackTimeLeft"` // milliseconds
}

// restore rebuilds the state from persisted snapshot rows. The board is
// reparsed from the last placement, the repetition index replayed from
// all of them, and the seats rotated to whichever side the ply count
// says is due to move. Castling rights and en passant windows do not
// survive the placement format; restored games accept that loss.
func (st *GameState) restore(plies []SavedPly, historyString string) error {
	for i, ply := range plies {
		status, err := ParseGameStatus(ply.Status)
		if err != nil {
			return fmt.Errorf("ply %d: %w", i, err)
		}
		move, err := ParseCoordinateMove(ply.Move)
		if err != nil {
			return fmt.Errorf("ply %d: %w", i, err)
		}
		move.Color = ply.Color
		st.placementIndices[ply.Placement] = append(st.placementIndices[ply.Placement], i)
		st.metadata = append(st.metadata, BoardMetadata{
			Placement:  ply.Placement,
			TurnNumber: ply.TurnNumber,
			Status:     status,
			Move:       move,
			Color:      ply.Color,
			Timestamp:  ply.Timestamp,
		})
	}

	if len(plies) > 0 {
		last := plies[len(plies)-1]
		if err := st.board.Deserialize(last.Placement); err != nil {
			return fmt.Errorf("last placement: %w", err)
		}
		st.status = st.metadata[len(st.metadata)-1].Status
		st.turnNumber = last.TurnNumber
		if last.Color == Black {
			st.turnNumber++
		}
		white := st.playerByColor(White)
		black := st.playerByColor(Black)
		white.Clock.Reset(time.Duration(last.WhiteTimeLeft) * time.Millisecond)
		black.Clock.Reset(time.Duration(last.BlackTimeLeft) * time.Millisecond)
		// odd ply count means white has moved and black is due
		if len(plies)%2 == 1 {
			st.currentPlayer, st.opponentPlayer = black, white
		} else {
			st.currentPlayer, st.opponentPlayer = white, black
		}
		// reapply so the check flags line up with the restored status
		st.setStatus(st.status)
	}

	for i, token := range strings.Fields(historyString) {
		move, err := ParseCoordinateMove(token)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		move.Color = White
		if i%2 == 1 {
			move.Color = Black
		}
		st.history = append(st.history, move)
	}
	st.historyString = historyString
	return nil
}
