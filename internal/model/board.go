package model

import (
	"fmt"
	"strings"
)

// Layout selects the initial piece arrangement.
type Layout int

const (
	LayoutStandard Layout = iota
	LayoutKingsOnly
)

// Board owns the 8x8 grid. A square holds at most one piece and every
// piece sits on exactly one square; all higher rule logic goes through
// the queries below rather than touching squares directly.
type Board struct {
	grid [8][8]*Piece
}

func NewBoard(layout Layout) *Board {
	b := &Board{}
	b.Initialize(layout)
	return b
}

// Initialize clears the grid and places the layout's pieces.
func (b *Board) Initialize(layout Layout) {
	b.grid = [8][8]*Piece{}
	if layout == LayoutStandard {
		backRank := []PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
		for col, t := range backRank {
			b.grid[0][col] = newPiece(Black, Position{Row: 0, Col: col}, t)
			b.grid[7][col] = newPiece(White, Position{Row: 7, Col: col}, t)
		}
		for col := 0; col < 8; col++ {
			b.grid[1][col] = newPiece(Black, Position{Row: 1, Col: col}, Pawn)
			b.grid[6][col] = newPiece(White, Position{Row: 6, Col: col}, Pawn)
		}
	} else {
		b.grid[0][4] = newPiece(Black, Position{Row: 0, Col: 4}, King)
		b.grid[7][4] = newPiece(White, Position{Row: 7, Col: 4}, King)
	}
	b.refreshMoves()
}

// PieceAt returns the piece on pos, or nil for empty and off-board squares.
func (b *Board) PieceAt(pos Position) *Piece {
	if !b.IsOnBoard(pos) {
		return nil
	}
	return b.grid[pos.Row][pos.Col]
}

func (b *Board) IsOnBoard(pos Position) bool {
	return pos.Row >= 0 && pos.Row < 8 && pos.Col >= 0 && pos.Col < 8
}

func (b *Board) IsEmpty(pos Position) bool {
	return b.IsOnBoard(pos) && b.grid[pos.Row][pos.Col] == nil
}

func (b *Board) IsFriendly(pos Position, c Color) bool {
	piece := b.PieceAt(pos)
	return piece != nil && piece.Color == c
}

func (b *Board) IsEnemy(pos Position, c Color) bool {
	piece := b.PieceAt(pos)
	return piece != nil && piece.Color != c
}

// MovePiece relocates the piece on start to end, overwriting whatever
// occupied end. Unless force is set, end must appear in the piece's
// cached target set; a rejected move mutates nothing. Every cache on the
// board is rebuilt after the relocation.
func (b *Board) MovePiece(start, end Position, force bool) bool {
	piece := b.PieceAt(start)
	if piece == nil || !b.IsOnBoard(end) {
		return false
	}
	if !force && !piece.canReach(end) {
		return false
	}
	b.grid[end.Row][end.Col] = piece
	b.grid[start.Row][start.Col] = nil
	piece.Position = end
	if piece.Type == Pawn {
		piece.moveCount++
		piece.markEnPassant()
	}
	piece.HasMoved = true
	b.refreshMoves()
	return true
}

// PlacePiece overwrites pos with piece (nil clears the square) and
// rebuilds every cache. Off-board positions are rejected.
func (b *Board) PlacePiece(pos Position, piece *Piece) bool {
	if !b.IsOnBoard(pos) {
		return false
	}
	if piece != nil {
		piece.Position = pos
	}
	b.grid[pos.Row][pos.Col] = piece
	b.refreshMoves()
	return true
}

// IsSquareSafe reports whether no piece of the opposing colour attacks
// pos. A pawn's forward pushes are not attacks, so pawns only count on a
// file change.
func (b *Board) IsSquareSafe(pos Position, c Color) bool {
	for _, piece := range b.PiecesOf(c.Opposite()) {
		if piece.Type == Pawn {
			if pos.Col != piece.Position.Col && piece.canReach(pos) {
				return false
			}
			continue
		}
		if piece.canReach(pos) {
			return false
		}
	}
	return true
}

// KingPosition scans for the colour's king. A board without one has
// broken the game's core invariant, so this panics rather than guess.
func (b *Board) KingPosition(c Color) Position {
	for row := range b.grid {
		for _, piece := range b.grid[row] {
			if piece != nil && piece.Type == King && piece.Color == c {
				return piece.Position
			}
		}
	}
	panic(fmt.Sprintf("no %s king on the board", c))
}

func (b *Board) PiecesOf(c Color) []*Piece {
	pieces := []*Piece{}
	for row := range b.grid {
		for _, piece := range b.grid[row] {
			if piece != nil && piece.Color == c {
				pieces = append(pieces, piece)
			}
		}
	}
	return pieces
}

// isEnPassantTarget reports whether pos holds a pawn of colour c whose
// double-step window is still open.
func (b *Board) isEnPassantTarget(pos Position, c Color) bool {
	if (c == White && pos.Row != 4) || (c == Black && pos.Row != 3) {
		return false
	}
	piece := b.PieceAt(pos)
	return piece != nil && piece.Type == Pawn && piece.Color == c && piece.EnPassant
}

// IsDeadPosition reports the insufficient-material endings: king against
// king, optionally with one bishop or one knight on either side.
func (b *Board) IsDeadPosition() bool {
	var whitePieces, blackPieces int
	var whiteMinor, blackMinor bool
	for row := range b.grid {
		for _, piece := range b.grid[row] {
			if piece == nil {
				continue
			}
			minor := piece.Type == Bishop || piece.Type == Knight
			if piece.Color == White {
				whitePieces++
				whiteMinor = whiteMinor || minor
			} else {
				blackPieces++
				blackMinor = blackMinor || minor
			}
		}
	}
	if whitePieces == 1 && blackPieces == 1 {
		return true
	}
	if whitePieces == 1 && blackPieces == 2 && blackMinor {
		return true
	}
	if blackPieces == 1 && whitePieces == 2 && whiteMinor {
		return true
	}
	return false
}

// Squares returns the grid row by row for rendering; empty squares are nil.
func (b *Board) Squares() [][]*Piece {
	rows := make([][]*Piece, 8)
	for row := range b.grid {
		rows[row] = make([]*Piece, 8)
		copy(rows[row], b.grid[row][:])
	}
	return rows
}

// refreshMoves rebuilds every piece's valid-move cache in row order.
func (b *Board) refreshMoves() {
	for row := range b.grid {
		for _, piece := range b.grid[row] {
			if piece != nil {
				piece.UpdateValidMoves(b)
			}
		}
	}
}

// Serialize renders the grid as eight newline-terminated rows: each
// occupied square becomes its piece letter (uppercase white, lowercase
// black) followed by a dash, each empty square a dot. hasMoved, en
// passant windows and side-to-move are deliberately not encoded.
func (b *Board) Serialize() string {
	var sb strings.Builder
	for row := range b.grid {
		for _, piece := range b.grid[row] {
			if piece != nil {
				sb.WriteByte(piece.letter())
				sb.WriteByte('-')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Deserialize rebuilds the grid from Serialize's format. A letter parks
// a piece on the current square without advancing; dashes and dots both
// advance a column; a newline closes a row. Rows shorter than eight
// squares leave the remainder empty, but anything that overflows the
// 8x8 shape, or fails to describe all eight rows, is rejected and
// leaves the board untouched.
func (b *Board) Deserialize(s string) error {
	var grid [8][8]*Piece
	row, col := 0, 0
	for _, r := range s {
		switch r {
		case '-', '.':
			col++
			if col > 8 {
				return fmt.Errorf("row %d overflows the board", row)
			}
		case '\n':
			row++
			col = 0
			if row > 8 {
				return fmt.Errorf("placement has more than 8 rows")
			}
		default:
			t, c, ok := pieceFromLetter(r)
			if !ok {
				return fmt.Errorf("unexpected character %q in row %d", r, row)
			}
			if row > 7 || col > 7 {
				return fmt.Errorf("placement overflows the board at row %d", row)
			}
			grid[row][col] = newPiece(c, Position{Row: row, Col: col}, t)
		}
	}
	if row < 7 {
		return fmt.Errorf("placement describes %d complete rows, want 8", row)
	}
	b.grid = grid
	b.refreshMoves()
	return nil
}
