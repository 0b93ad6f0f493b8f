package model

import "fmt"

// Position addresses one square of the grid. Row 0 is black's back rank
// and row 7 is white's; columns run from the a-file (0) to the h-file (7).
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// SquareNotation renders the square in algebraic form, e.g. e4.
func (p Position) SquareNotation() string {
	return fmt.Sprintf("%c%d", 'a'+p.Col, 8-p.Row)
}

// ParseSquare converts a two-character algebraic square back into a Position.
func ParseSquare(s string) (Position, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Position{}, fmt.Errorf("invalid square %q", s)
	}
	return Position{Row: 8 - int(s[1]-'0'), Col: int(s[0] - 'a')}, nil
}
