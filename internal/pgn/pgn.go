// Package pgn renders games as Portable Game Notation documents.
package pgn

import (
	"fmt"
	"strings"
	"time"

	"github.com/castlegate/castlegate-backend/internal/model"
)

// Result returns the PGN result token for a game outcome. Games still
// in progress render as "*".
func Result(status model.GameStatus, winner model.Color) string {
	switch status {
	case model.StatusCheckmate, model.StatusResign, model.StatusTimeout:
		switch winner {
		case model.White:
			return "1-0"
		case model.Black:
			return "0-1"
		}
		return "*"
	case model.StatusDraw, model.StatusStalemate:
		return "1/2-1/2"
	}
	return "*"
}

// Render produces a PGN document from the per-ply snapshot rows. Rows
// restored from a save only carry coordinate moves, so their notation
// degrades to bare destination squares; live games render full SAN.
func Render(white, black string, status model.GameStatus, winner model.Color, metadata []model.BoardMetadata) string {
	var pgn strings.Builder

	result := Result(status, winner)

	fmt.Fprintf(&pgn, "[Event %q]\n", "Casual Match: "+white+" vs "+black)
	fmt.Fprintf(&pgn, "[Site %q]\n", "castlegate")
	fmt.Fprintf(&pgn, "[Date %q]\n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(&pgn, "[Round %q]\n", "1")
	fmt.Fprintf(&pgn, "[White %q]\n", white)
	fmt.Fprintf(&pgn, "[Black %q]\n", black)
	fmt.Fprintf(&pgn, "[Result %q]\n\n", result)

	for i, row := range metadata {
		move := row.Move
		if move.Start == (model.Position{}) && move.End == (model.Position{}) {
			continue
		}

		if move.Color == model.White {
			fmt.Fprintf(&pgn, "%d. ", row.TurnNumber)
		}

		pgn.WriteString(san(move))

		switch row.Status {
		case model.StatusCheckmate:
			pgn.WriteString("#")
		case model.StatusCheck:
			pgn.WriteString("+")
		}

		pgn.WriteString(" ")

		if move.Color == model.Black || i == len(metadata)-1 {
			pgn.WriteString("\n")
		}
	}

	pgn.WriteString(result)
	pgn.WriteString("\n")

	return pgn.String()
}

// san renders one ply in standard algebraic notation. Castling is
// spotted by the king's two-square slide.
func san(move model.Move) string {
	if move.Piece == model.King && twoApart(move.Start.Col, move.End.Col) {
		if move.End.Col > move.Start.Col {
			return "O-O"
		}
		return "O-O-O"
	}

	var s strings.Builder
	s.WriteString(pieceLetter(move.Piece))

	if move.Piece == model.Pawn && move.Captured != "" {
		s.WriteByte(byte('a' + move.Start.Col))
	}
	if move.Captured != "" {
		s.WriteString("x")
	}
	s.WriteString(move.End.SquareNotation())
	if move.Promotion != "" {
		s.WriteString("=" + pieceLetter(move.Promotion))
	}

	return s.String()
}

func pieceLetter(t model.PieceType) string {
	switch t {
	case model.King:
		return "K"
	case model.Queen:
		return "Q"
	case model.Rook:
		return "R"
	case model.Bishop:
		return "B"
	case model.Knight:
		return "N"
	}
	return ""
}

func twoApart(a, b int) bool {
	return a-b == 2 || b-a == 2
}
