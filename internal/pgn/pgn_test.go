package pgn

import (
	"strings"
	"testing"
	"time"

	"github.com/castlegate/castlegate-backend/internal/model"
)

func ply(start, end model.Position, piece model.PieceType, color model.Color) model.Move {
	return model.Move{Start: start, End: end, Piece: piece, Color: color}
}

func TestRenderFoolsMate(t *testing.T) {
	metadata := []model.BoardMetadata{
		{
			TurnNumber: 1, Status: model.StatusOngoing, Color: model.White,
			Move: ply(model.Position{Row: 6, Col: 5}, model.Position{Row: 5, Col: 5}, model.Pawn, model.White),
		},
		{
			TurnNumber: 1, Status: model.StatusOngoing, Color: model.Black,
			Move: ply(model.Position{Row: 1, Col: 4}, model.Position{Row: 3, Col: 4}, model.Pawn, model.Black),
		},
		{
			TurnNumber: 2, Status: model.StatusOngoing, Color: model.White,
			Move: ply(model.Position{Row: 6, Col: 6}, model.Position{Row: 4, Col: 6}, model.Pawn, model.White),
		},
		{
			TurnNumber: 2, Status: model.StatusCheckmate, Color: model.Black,
			Move: ply(model.Position{Row: 0, Col: 3}, model.Position{Row: 4, Col: 7}, model.Queen, model.Black),
		},
	}

	got := Render("Alice", "Bob", model.StatusCheckmate, model.Black, metadata)

	want := strings.Join([]string{
		`[Event "Casual Match: Alice vs Bob"]`,
		`[Site "castlegate"]`,
		`[Date "` + time.Now().Format("2006-01-02") + `"]`,
		`[Round "1"]`,
		`[White "Alice"]`,
		`[Black "Bob"]`,
		`[Result "0-1"]`,
		``,
		`1. f3 e5 `,
		`2. g4 Qh4# `,
		`0-1`,
		``,
	}, "\n")

	if got != want {
		t.Errorf("rendered PGN mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderSkipsEmptyMoves(t *testing.T) {
	metadata := []model.BoardMetadata{
		{TurnNumber: 1, Status: model.StatusOngoing, Color: model.White},
	}

	got := Render("Alice", "Bob", model.StatusOngoing, "", metadata)
	if strings.Contains(got, "1.") {
		t.Errorf("empty move rendered into movetext:\n%s", got)
	}
	if !strings.HasSuffix(got, "*\n") {
		t.Errorf("ongoing game should end with *, got:\n%s", got)
	}
}

func TestSAN(t *testing.T) {
	tests := []struct {
		name string
		move model.Move
		want string
	}{
		{
			name: "kingside castle",
			move: ply(model.Position{Row: 7, Col: 4}, model.Position{Row: 7, Col: 6}, model.King, model.White),
			want: "O-O",
		},
		{
			name: "queenside castle",
			move: ply(model.Position{Row: 0, Col: 4}, model.Position{Row: 0, Col: 2}, model.King, model.Black),
			want: "O-O-O",
		},
		{
			name: "plain king step",
			move: ply(model.Position{Row: 7, Col: 4}, model.Position{Row: 7, Col: 5}, model.King, model.White),
			want: "Kf1",
		},
		{
			name: "pawn capture keeps its file",
			move: model.Move{
				Start: model.Position{Row: 4, Col: 4}, End: model.Position{Row: 3, Col: 3},
				Piece: model.Pawn, Color: model.White, Captured: model.Pawn,
			},
			want: "exd5",
		},
		{
			name: "en passant renders like any pawn capture",
			move: model.Move{
				Start: model.Position{Row: 3, Col: 4}, End: model.Position{Row: 2, Col: 3},
				Piece: model.Pawn, Color: model.White, Captured: model.Pawn,
			},
			want: "exd6",
		},
		{
			name: "knight capture",
			move: model.Move{
				Start: model.Position{Row: 7, Col: 6}, End: model.Position{Row: 5, Col: 5},
				Piece: model.Knight, Color: model.White, Captured: model.Bishop,
			},
			want: "Nxf3",
		},
		{
			name: "quiet promotion",
			move: model.Move{
				Start: model.Position{Row: 1, Col: 0}, End: model.Position{Row: 0, Col: 0},
				Piece: model.Pawn, Color: model.White, Promotion: model.Queen,
			},
			want: "a8=Q",
		},
		{
			name: "capture promotion",
			move: model.Move{
				Start: model.Position{Row: 1, Col: 1}, End: model.Position{Row: 0, Col: 0},
				Piece: model.Pawn, Color: model.White, Captured: model.Rook, Promotion: model.Knight,
			},
			want: "bxa8=N",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := san(tt.move); got != tt.want {
				t.Errorf("san() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResult(t *testing.T) {
	tests := []struct {
		status model.GameStatus
		winner model.Color
		want   string
	}{
		{model.StatusCheckmate, model.White, "1-0"},
		{model.StatusCheckmate, model.Black, "0-1"},
		{model.StatusResign, model.White, "1-0"},
		{model.StatusTimeout, model.Black, "0-1"},
		{model.StatusDraw, "", "1/2-1/2"},
		{model.StatusStalemate, "", "1/2-1/2"},
		{model.StatusOngoing, "", "*"},
		{model.StatusCheck, "", "*"},
		{model.StatusPromptDraw, "", "*"},
	}

	for _, tt := range tests {
		if got := Result(tt.status, tt.winner); got != tt.want {
			t.Errorf("Result(%s, %q) = %q, want %q", tt.status, tt.winner, got, tt.want)
		}
	}
}
