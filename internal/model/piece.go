package model

type PieceType string

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

func (t PieceType) notation() string {
	switch t {
	case King:
		return "K"
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case Bishop:
		return "B"
	case Knight:
		return "N"
	case Pawn:
		return ""
	}
	return ""
}

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

// forward is the row direction the colour's pawns advance in.
func (c Color) forward() int {
	if c == White {
		return -1
	}
	return 1
}

// Piece is a single chessman. The valid-move cache holds the piece's
// pseudo-legal targets for the board it was last refreshed against and
// must never be read across an unrefreshed mutation.
type Piece struct {
	Type      PieceType `json:"type"`
	Color     Color     `json:"color"`
	Position  Position  `json:"position"`
	HasMoved  bool      `json:"hasMoved"`
	EnPassant bool      `json:"enPassant,omitempty"` // pawns only

	moveCount  int
	validMoves []Position
}

// newPiece is the only constructor; promotion and deserialization both
// go through it.
func newPiece(c Color, pos Position, t PieceType) *Piece {
	return &Piece{Type: t, Color: c, Position: pos}
}

// ValidMoves returns the cached pseudo-legal targets.
func (p *Piece) ValidMoves() []Position {
	return p.validMoves
}

func (p *Piece) canReach(pos Position) bool {
	for _, m := range p.validMoves {
		if m == pos {
			return true
		}
	}
	return false
}

// UpdateValidMoves recomputes the cache against the given board.
func (p *Piece) UpdateValidMoves(b *Board) {
	switch p.Type {
	case Pawn:
		p.validMoves = p.pawnMoves(b)
	case Knight:
		p.validMoves = p.knightMoves(b)
	case Bishop:
		p.validMoves = p.slidingMoves(b, bishopDirs)
	case Rook:
		p.validMoves = p.slidingMoves(b, rookDirs)
	case Queen:
		p.validMoves = p.slidingMoves(b, royalDirs)
	case King:
		p.validMoves = p.kingMoves(b)
	}
}

// markEnPassant flags a pawn that has just double-stepped. The flag holds
// until the opposing side finishes its next ply.
func (p *Piece) markEnPassant() {
	if (p.Color == White && p.Position.Row == 4 && p.moveCount == 1) ||
		(p.Color == Black && p.Position.Row == 3 && p.moveCount == 1) {
		p.EnPassant = true
		return
	}
	p.EnPassant = false
}

func (p *Piece) letter() byte {
	var c byte
	switch p.Type {
	case Pawn:
		c = 'P'
	case Rook:
		c = 'R'
	case Knight:
		c = 'N'
	case Bishop:
		c = 'B'
	case Queen:
		c = 'Q'
	case King:
		c = 'K'
	}
	if p.Color == Black {
		return c - 'A' + 'a'
	}
	return c
}

func pieceFromLetter(r rune) (PieceType, Color, bool) {
	c := White
	if r >= 'a' && r <= 'z' {
		c = Black
		r = r - 'a' + 'A'
	}
	switch r {
	case 'P':
		return Pawn, c, true
	case 'R':
		return Rook, c, true
	case 'N':
		return Knight, c, true
	case 'B':
		return Bishop, c, true
	case 'Q':
		return Queen, c, true
	case 'K':
		return King, c, true
	}
	return "", "", false
}
