package model

var (
	rookDirs    = []Position{{Row: 0, Col: 1}, {Row: 0, Col: -1}, {Row: 1, Col: 0}, {Row: -1, Col: 0}}
	bishopDirs  = []Position{{Row: 1, Col: 1}, {Row: 1, Col: -1}, {Row: -1, Col: 1}, {Row: -1, Col: -1}}
	royalDirs   = []Position{{Row: 0, Col: 1}, {Row: 0, Col: -1}, {Row: 1, Col: 0}, {Row: -1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: -1}, {Row: -1, Col: 1}, {Row: -1, Col: -1}}
	knightJumps = []Position{{Row: 2, Col: 1}, {Row: 2, Col: -1}, {Row: -2, Col: 1}, {Row: -2, Col: -1}, {Row: 1, Col: 2}, {Row: 1, Col: -2}, {Row: -1, Col: 2}, {Row: -1, Col: -2}}
)

func (p *Piece) pawnMoves(b *Board) []Position {
	moves := []Position{}
	dir := p.Color.forward()

	// single push, and the double push from the start rank
	forward := Position{Row: p.Position.Row + dir, Col: p.Position.Col}
	if b.IsOnBoard(forward) && b.IsEmpty(forward) {
		moves = append(moves, forward)
		if (p.Color == Black && p.Position.Row == 1) || (p.Color == White && p.Position.Row == 6) {
			double := Position{Row: p.Position.Row + 2*dir, Col: p.Position.Col}
			if b.IsEmpty(double) {
				moves = append(moves, double)
			}
		}
	}

	// diagonal captures
	for _, dc := range []int{-1, 1} {
		diag := Position{Row: p.Position.Row + dir, Col: p.Position.Col + dc}
		if b.IsOnBoard(diag) && b.IsEnemy(diag, p.Color) {
			moves = append(moves, diag)
		}
	}

	// en passant: a white capturer sits on row 3, a black one on row 4,
	// beside an enemy pawn whose double-step window is still open
	if (p.Color == White && p.Position.Row == 3) || (p.Color == Black && p.Position.Row == 4) {
		for _, dc := range []int{-1, 1} {
			beside := Position{Row: p.Position.Row, Col: p.Position.Col + dc}
			if b.IsOnBoard(beside) && b.isEnPassantTarget(beside, p.Color.Opposite()) {
				moves = append(moves, Position{Row: p.Position.Row + dir, Col: p.Position.Col + dc})
			}
		}
	}
	return moves
}

func (p *Piece) knightMoves(b *Board) []Position {
	moves := []Position{}
	for _, d := range knightJumps {
		target := Position{Row: p.Position.Row + d.Row, Col: p.Position.Col + d.Col}
		if b.IsOnBoard(target) && !b.IsFriendly(target, p.Color) {
			moves = append(moves, target)
		}
	}
	return moves
}

func (p *Piece) slidingMoves(b *Board, dirs []Position) []Position {
	moves := []Position{}
	for _, d := range dirs {
		target := Position{Row: p.Position.Row + d.Row, Col: p.Position.Col + d.Col}
		for b.IsOnBoard(target) {
			if b.IsEmpty(target) {
				moves = append(moves, target)
			} else {
				if b.IsEnemy(target, p.Color) {
					moves = append(moves, target)
				}
				break
			}
			target = Position{Row: target.Row + d.Row, Col: target.Col + d.Col}
		}
	}
	return moves
}

func (p *Piece) kingMoves(b *Board) []Position {
	moves := []Position{}
	for _, d := range royalDirs {
		target := Position{Row: p.Position.Row + d.Row, Col: p.Position.Col + d.Col}
		if !b.IsOnBoard(target) || b.IsFriendly(target, p.Color) {
			continue
		}
		if !b.IsSquareSafe(target, p.Color) {
			continue
		}
		moves = append(moves, target)
	}
	if !p.HasMoved {
		for _, rookCol := range []int{0, 7} {
			if p.canCastleWith(b, rookCol) {
				dir := 1
				if rookCol == 0 {
					dir = -1
				}
				moves = append(moves, Position{Row: p.Position.Row, Col: p.Position.Col + 2*dir})
			}
		}
	}
	return moves
}

// canCastleWith checks one wing: an unmoved rook on rookCol, empty squares
// between, and a safe transit and destination square for the king.
func (p *Piece) canCastleWith(b *Board, rookCol int) bool {
	rook := b.PieceAt(Position{Row: p.Position.Row, Col: rookCol})
	if rook == nil || rook.Type != Rook || rook.HasMoved {
		return false
	}
	dir := 1
	if rookCol < p.Position.Col {
		dir = -1
	}
	for col := p.Position.Col + dir; col != rookCol; col += dir {
		if !b.IsEmpty(Position{Row: p.Position.Row, Col: col}) {
			return false
		}
	}
	if !b.IsSquareSafe(Position{Row: p.Position.Row, Col: p.Position.Col + dir}, p.Color) ||
		!b.IsSquareSafe(Position{Row: p.Position.Row, Col: p.Position.Col + 2*dir}, p.Color) {
		return false
	}
	return true
}
