package model

import "time"

// makeMove applies one validated ply. Callers hold the game lock and
// have already dealt with turn order, terminal states and pending
// promotions.
func (g *Game) makeMove(start, end Position) error {
	st := g.state
	b := st.board

	piece := b.PieceAt(start)
	if piece == nil {
		return ErrNoPiece
	}
	if piece.Color != st.currentPlayer.Color {
		return ErrNotYourTurn
	}
	if target := b.PieceAt(end); target != nil && target.Type == King {
		return ErrIllegalMove
	}
	if !piece.canReach(end) || !g.tryMove(start, end) {
		return ErrIllegalMove
	}

	move := Move{Start: start, End: end, Piece: piece.Type, Color: piece.Color}
	if target := b.PieceAt(end); target != nil {
		move.Captured = target.Type
	}
	enPassant := piece.Type == Pawn && start.Col != end.Col && b.IsEmpty(end)
	if enPassant {
		move.Captured = Pawn
	}
	st.addToHistory(move)

	b.MovePiece(start, end, false)
	if piece.Type == King && abs(end.Col-start.Col) == 2 {
		g.moveCastlingRook(b, end)
	}
	if enPassant {
		// The captured pawn sits beside the capturer, not on the
		// landing square.
		b.PlacePiece(Position{Row: start.Row, Col: end.Col}, nil)
	}

	if piece.Type == Pawn && end.Row == lastRank(piece.Color) {
		// Park the ply until the player picks a piece. The turn has
		// not passed yet; PromotePawn finishes the rest.
		pending := end
		st.promotionPending = &pending
		return nil
	}

	g.completeTurn()
	return nil
}

func lastRank(c Color) int {
	if c == White {
		return 0
	}
	return 7
}

// moveCastlingRook relocates the companion rook after the king's
// two-square step. kingEnd col 2 means queenside, col 6 kingside.
func (g *Game) moveCastlingRook(b *Board, kingEnd Position) {
	row := kingEnd.Row
	if kingEnd.Col == 2 {
		b.MovePiece(Position{Row: row, Col: 0}, Position{Row: row, Col: 3}, true)
	} else {
		b.MovePiece(Position{Row: row, Col: 7}, Position{Row: row, Col: 5}, true)
	}
}

// completeTurn runs the fixed back half of every ply: hand the move to
// the other seat, expire their leftover en passant windows, index the
// new placement, evaluate the status and only then record the snapshot,
// so the row carries the status the ply produced.
func (g *Game) completeTurn() {
	st := g.state
	move := st.history[len(st.history)-1]
	moverColor := st.currentPlayer.Color
	turn := st.turnNumber

	st.switchTurns()
	g.expireEnPassant(st.currentPlayer.Color)
	st.board.refreshMoves()

	placement := st.board.Serialize()
	st.placementIndices[placement] = append(st.placementIndices[placement], len(st.metadata))

	g.updateStatus()

	st.metadata = append(st.metadata, BoardMetadata{
		Placement:  placement,
		TurnNumber: turn,
		Status:     st.status,
		Move:       move,
		Color:      moverColor,
		Timestamp:  time.Now(),
	})
}

// expireEnPassant closes the one-ply capture window: any pawn of the
// side now to move that double-pushed two plies ago is no longer a
// target. The opponent's fresh flag survives untouched.
func (g *Game) expireEnPassant(toMove Color) {
	for _, piece := range g.state.board.PiecesOf(toMove) {
		if piece.Type == Pawn {
			piece.EnPassant = false
		}
	}
}

// updateStatus reevaluates the game after a ply, from the perspective of
// the player now to move. Mate and stalemate outrank everything; check
// is recorded but still lets the draw layers below have their say.
func (g *Game) updateStatus() {
	st := g.state
	current := st.currentPlayer.Color

	if g.isCheckmate(current) {
		st.setStatus(StatusCheckmate)
		return
	}
	if g.isStalemate(current) {
		st.setStatus(StatusStalemate)
		return
	}
	if g.isKingInCheck(current) {
		st.setStatus(StatusCheck)
	} else if st.currentPlayer.Resigning || st.opponentPlayer.Resigning {
		st.setStatus(StatusResign)
		return
	} else {
		st.setStatus(StatusOngoing)
	}

	repeats := len(st.placementIndices[st.board.Serialize()])
	if repeats >= 5 {
		st.setStatus(StatusDraw)
		return
	}
	if repeats >= 3 {
		st.setStatus(StatusPromptDraw)
	}

	last := st.history[len(st.history)-1]
	if last.Captured == "" && last.Piece != Pawn {
		st.noCaptureOrPawnMoves++
		if st.noCaptureOrPawnMoves >= 75 {
			st.setStatus(StatusDraw)
			return
		}
		if st.noCaptureOrPawnMoves >= 50 {
			st.setStatus(StatusPromptDraw)
		}
	} else {
		st.noCaptureOrPawnMoves = 0
	}

	if st.board.IsDeadPosition() {
		st.setStatus(StatusDraw)
	}
}

// possibleMoves narrows the piece's cached reach to the moves that leave
// its own king safe.
func (g *Game) possibleMoves(pos Position) []Position {
	piece := g.state.board.PieceAt(pos)
	if piece == nil {
		return nil
	}
	legal := make([]Position, 0, len(piece.ValidMoves()))
	for _, end := range piece.ValidMoves() {
		if g.tryMove(pos, end) {
			legal = append(legal, end)
		}
	}
	return legal
}

// tryMove plays the move out on a throwaway copy of the board and
// reports whether the mover's king survives it. Castling while checked
// is rejected up front; the rest rides on the clone.
func (g *Game) tryMove(start, end Position) bool {
	b := g.state.board
	piece := b.PieceAt(start)
	if piece == nil {
		return false
	}
	castling := piece.Type == King && abs(end.Col-start.Col) == 2
	if castling && g.isKingInCheck(piece.Color) {
		return false
	}
	enPassant := piece.Type == Pawn && start.Col != end.Col && b.IsEmpty(end)

	clone := &Board{}
	if err := clone.Deserialize(b.Serialize()); err != nil {
		return false
	}
	clone.MovePiece(start, end, true)
	if castling {
		g.moveCastlingRook(clone, end)
	}
	if enPassant {
		clone.PlacePiece(Position{Row: start.Row, Col: end.Col}, nil)
	}

	king := clone.KingPosition(piece.Color)
	for _, enemy := range clone.PiecesOf(piece.Color.Opposite()) {
		if enemy.canReach(king) {
			return false
		}
	}
	return true
}

// isKingInCheck reports whether c's king is attacked on the live board.
func (g *Game) isKingInCheck(c Color) bool {
	b := g.state.board
	king := b.KingPosition(c)
	for _, enemy := range b.PiecesOf(c.Opposite()) {
		if enemy.canReach(king) {
			return true
		}
	}
	return false
}

func (g *Game) isCheckmate(c Color) bool {
	return g.isKingInCheck(c) && !g.hasLegalMove(c)
}

func (g *Game) isStalemate(c Color) bool {
	return !g.isKingInCheck(c) && !g.hasLegalMove(c)
}

func (g *Game) hasLegalMove(c Color) bool {
	for _, piece := range g.state.board.PiecesOf(c) {
		if len(g.possibleMoves(piece.Position)) > 0 {
			return true
		}
	}
	return false
}

// checkPieces lists the checked king first, then every attacker.
func (g *Game) checkPieces() []Position {
	c := g.state.currentPlayer.Color
	b := g.state.board
	king := b.KingPosition(c)
	pieces := []Position{king}
	for _, enemy := range b.PiecesOf(c.Opposite()) {
		if enemy.canReach(king) {
			pieces = append(pieces, enemy.Position)
		}
	}
	return pieces
}
