package model

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func pos(row, col int) Position {
	return Position{Row: row, Col: col}
}

// boardFrom builds a board from eight 8-character rows where '.' is an
// empty square and a piece letter places that piece, expanding to the
// serialized wire form before parsing.
func boardFrom(t *testing.T, rows ...string) *Board {
	t.Helper()
	if len(rows) != 8 {
		t.Fatalf("fixture has %d rows, want 8", len(rows))
	}
	var sb strings.Builder
	for _, row := range rows {
		for _, r := range row {
			if r == '.' {
				sb.WriteByte('.')
			} else {
				sb.WriteRune(r)
				sb.WriteByte('-')
			}
		}
		sb.WriteByte('\n')
	}
	b := &Board{}
	if err := b.Deserialize(sb.String()); err != nil {
		t.Fatalf("deserialize fixture: %v", err)
	}
	return b
}

func TestInitializeStandardLayout(t *testing.T) {
	b := NewBoard(LayoutStandard)

	checks := []struct {
		pos   Position
		typ   PieceType
		color Color
	}{
		{pos(0, 0), Rook, Black},
		{pos(0, 4), King, Black},
		{pos(1, 3), Pawn, Black},
		{pos(6, 3), Pawn, White},
		{pos(7, 3), Queen, White},
		{pos(7, 4), King, White},
	}
	for _, c := range checks {
		piece := b.PieceAt(c.pos)
		if piece == nil || piece.Type != c.typ || piece.Color != c.color {
			t.Errorf("PieceAt(%v) = %+v, want %s %s", c.pos, piece, c.color, c.typ)
		}
	}
	if got := b.PieceAt(pos(3, 3)); got != nil {
		t.Errorf("PieceAt(d5) = %+v, want empty", got)
	}
	if got := len(b.PiecesOf(White)); got != 16 {
		t.Errorf("white pieces = %d, want 16", got)
	}
	if got := len(b.PiecesOf(Black)); got != 16 {
		t.Errorf("black pieces = %d, want 16", got)
	}
}

func TestInitializeKingsOnlyLayout(t *testing.T) {
	b := NewBoard(LayoutKingsOnly)

	if got := len(b.PiecesOf(White)); got != 1 {
		t.Fatalf("white pieces = %d, want 1", got)
	}
	if got := b.KingPosition(Black); got != pos(0, 4) {
		t.Errorf("black king at %v, want e8", got)
	}
	if got := b.KingPosition(White); got != pos(7, 4) {
		t.Errorf("white king at %v, want e1", got)
	}
}

func TestSerializeInitialBoard(t *testing.T) {
	want := strings.Join([]string{
		"r-n-b-q-k-b-n-r-",
		"p-p-p-p-p-p-p-p-",
		"........",
		"........",
		"........",
		"........",
		"P-P-P-P-P-P-P-P-",
		"R-N-B-Q-K-B-N-R-",
	}, "\n") + "\n"

	if got := NewBoard(LayoutStandard).Serialize(); got != want {
		t.Errorf("serialized board mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	b := NewBoard(LayoutStandard)
	b.MovePiece(pos(6, 4), pos(4, 4), false)
	b.MovePiece(pos(0, 1), pos(2, 2), false)

	s := b.Serialize()
	fresh := &Board{}
	if err := fresh.Deserialize(s); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got := fresh.Serialize(); got != s {
		t.Errorf("round trip mismatch (-want +got):\n%s", cmp.Diff(s, got))
	}
}

func TestDeserializeShortRows(t *testing.T) {
	// Letters park a piece without advancing, so a trailing dot closes
	// the letter's own square and rows may come up short of eight
	// advances. The remainder stays empty.
	b := &Board{}
	if err := b.Deserialize("Q......k.\n....p.p.\n....Q.Q.\n.....Q..\n........\n........\n........\n...K....\n"); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	wantPieces := map[Position]struct {
		typ   PieceType
		color Color
	}{
		pos(0, 0): {Queen, White},
		pos(0, 6): {King, Black},
		pos(1, 4): {Pawn, Black},
		pos(1, 5): {Pawn, Black},
		pos(2, 4): {Queen, White},
		pos(2, 5): {Queen, White},
		pos(3, 5): {Queen, White},
		pos(7, 3): {King, White},
	}
	total := len(b.PiecesOf(White)) + len(b.PiecesOf(Black))
	if total != len(wantPieces) {
		t.Fatalf("board has %d pieces, want %d", total, len(wantPieces))
	}
	for at, want := range wantPieces {
		piece := b.PieceAt(at)
		if piece == nil || piece.Type != want.typ || piece.Color != want.color {
			t.Errorf("PieceAt(%v) = %+v, want %s %s", at, piece, want.color, want.typ)
		}
	}
}

func TestDeserializeMalformed(t *testing.T) {
	emptyRow := "........\n"
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"three rows", strings.Repeat(emptyRow, 3)},
		{"nine rows", strings.Repeat(emptyRow, 9)},
		{"nine columns", ".........\n" + strings.Repeat(emptyRow, 7)},
		{"letter past last column", "........K\n" + strings.Repeat(emptyRow, 7)},
		{"unknown letter", "z" + emptyRow[1:] + strings.Repeat(emptyRow, 7)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBoard(LayoutStandard)
			before := b.Serialize()
			if err := b.Deserialize(tc.input); err == nil {
				t.Fatal("Deserialize accepted malformed input")
			}
			if got := b.Serialize(); got != before {
				t.Error("failed Deserialize mutated the board")
			}
		})
	}
}

func TestMovePieceRespectsCachedTargets(t *testing.T) {
	b := NewBoard(LayoutStandard)

	// a1 rook is boxed in by its own pawn
	if b.MovePiece(pos(7, 0), pos(5, 0), false) {
		t.Error("blocked rook move was accepted")
	}
	if piece := b.PieceAt(pos(7, 0)); piece == nil || piece.Type != Rook {
		t.Error("rejected move disturbed the board")
	}

	if !b.MovePiece(pos(7, 0), pos(5, 0), true) {
		t.Error("forced move was rejected")
	}
	if piece := b.PieceAt(pos(5, 0)); piece == nil || piece.Type != Rook || !piece.HasMoved {
		t.Error("forced move did not relocate the rook")
	}
}

func TestIsSquareSafe(t *testing.T) {
	b := boardFrom(t,
		"r...k...",
		"........",
		"........",
		"...p....",
		"....N...",
		"........",
		"........",
		"....K...",
	)

	tests := []struct {
		name string
		pos  Position
		want bool
	}{
		{"rook file", pos(5, 0), false},
		{"rook rank", pos(0, 2), false},
		{"pawn capture square on occupied piece", pos(4, 4), false},
		{"pawn push square is not an attack", pos(4, 3), true},
		{"out of every reach", pos(5, 6), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := b.IsSquareSafe(tc.pos, White); got != tc.want {
				t.Errorf("IsSquareSafe(%v, white) = %v, want %v", tc.pos, got, tc.want)
			}
		})
	}
}

func TestKingPositionPanicsWithoutKing(t *testing.T) {
	b := boardFrom(t,
		"....k...",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
	)
	defer func() {
		if recover() == nil {
			t.Error("KingPosition did not panic on a board without the king")
		}
	}()
	b.KingPosition(White)
}

func TestIsDeadPosition(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		want bool
	}{
		{
			"kings only",
			[]string{"....k...", "........", "........", "........", "........", "........", "........", "....K..."},
			true,
		},
		{
			"king and bishop against king",
			[]string{"....k...", "........", "........", "........", "..B.....", "........", "........", "....K..."},
			true,
		},
		{
			"king against king and knight",
			[]string{"....k...", "..n.....", "........", "........", "........", "........", "........", "....K..."},
			true,
		},
		{
			"queen still on the board",
			[]string{"....k...", "........", "........", "........", "...Q....", "........", "........", "....K..."},
			false,
		},
		{
			"lone pawn is not a dead position",
			[]string{"....k...", "........", "........", "........", "...P....", "........", "........", "....K..."},
			false,
		},
		{
			"minor piece on each side",
			[]string{"....k...", "..n.....", "........", "........", "..B.....", "........", "........", "....K..."},
			false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := boardFrom(t, tc.rows...).IsDeadPosition(); got != tc.want {
				t.Errorf("IsDeadPosition() = %v, want %v", got, tc.want)
			}
		})
	}
}
