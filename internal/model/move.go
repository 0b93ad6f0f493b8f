package model

import (
	"fmt"
	"strings"
)

// Move records one executed ply. Captured stays empty for quiet moves and
// Promotion is stamped in afterwards once the replacement piece is chosen.
type Move struct {
	Start     Position  `json:"start"`
	End       Position  `json:"end"`
	Piece     PieceType `json:"piece"`
	Color     Color     `json:"color"`
	Captured  PieceType `json:"captured,omitempty"`
	Promotion PieceType `json:"promotion,omitempty"`
}

// CoordinateNotation renders the move in the four-character coordinate
// form shared by the history string and the engine bridge, e.g. e2e4,
// with a lowercase piece letter appended for promotions (e7e8q).
func (m Move) CoordinateNotation() string {
	s := m.Start.SquareNotation() + m.End.SquareNotation()
	if m.Promotion != "" {
		s += strings.ToLower(m.Promotion.notation())
	}
	return s
}

// ParseCoordinateMove reads a coordinate-form move back into a Move.
// Only the squares and an optional promotion survive the text form; the
// piece, colour and capture fields are left for the caller to fill.
func ParseCoordinateMove(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("invalid move %q", s)
	}
	start, err := ParseSquare(s[0:2])
	if err != nil {
		return Move{}, fmt.Errorf("invalid move %q: %w", s, err)
	}
	end, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("invalid move %q: %w", s, err)
	}
	move := Move{Start: start, End: end}
	if len(s) == 5 {
		t, _, ok := pieceFromLetter(rune(s[4]))
		if !ok || t == Pawn || t == King {
			return Move{}, fmt.Errorf("invalid promotion in %q", s)
		}
		move.Promotion = t
	}
	return move, nil
}

// WireMove is the move payload clients send over the socket and the
// REST move endpoint.
type WireMove struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// WirePromotion picks the replacement piece for a pawn waiting on its
// last rank.
type WirePromotion struct {
	Position Position  `json:"position"`
	Piece    PieceType `json:"piece"`
}

// WireDrawAnswer accepts or declines an open draw offer or prompt.
type WireDrawAnswer struct {
	Accept bool `json:"accept"`
}

// MatchFoundEvent tells a queued player which game they were paired
// into and which colour they hold.
type MatchFoundEvent struct {
	GameID string `json:"gameId"`
	Color  Color  `json:"color"`
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
