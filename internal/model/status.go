package model

import "fmt"

// GameStatus classifies the position after each completed ply. The
// uppercase text doubles as the persisted form.
type GameStatus string

const (
	StatusOngoing    GameStatus = "ONGOING"
	StatusCheck      GameStatus = "CHECK"
	StatusCheckmate  GameStatus = "CHECKMATE"
	StatusStalemate  GameStatus = "STALEMATE"
	StatusPromptDraw GameStatus = "PROMPTDRAW"
	StatusDraw       GameStatus = "DRAW"
	StatusResign     GameStatus = "RESIGN"
	StatusTimeout    GameStatus = "TIMEOUT"
)

// Terminal reports whether the game is over. Check and PromptDraw leave
// the game live.
func (s GameStatus) Terminal() bool {
	switch s {
	case StatusCheckmate, StatusStalemate, StatusDraw, StatusResign, StatusTimeout:
		return true
	}
	return false
}

// ParseGameStatus maps stored status text back to a GameStatus.
func ParseGameStatus(s string) (GameStatus, error) {
	switch status := GameStatus(s); status {
	case StatusOngoing, StatusCheck, StatusCheckmate, StatusStalemate,
		StatusPromptDraw, StatusDraw, StatusResign, StatusTimeout:
		return status, nil
	}
	return "", fmt.Errorf("unknown game status %q", s)
}
