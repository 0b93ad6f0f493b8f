package model

import "time"

// Player is one seat of a game. The check and resignation flags are
// maintained by the status machine so the winner can be read off them.
type Player struct {
	ID        string
	Name      string
	Color     Color
	Clock     *Clock
	InCheck   bool
	Resigning bool
}

func NewPlayer(id, name string, c Color, initialTime time.Duration) *Player {
	return &Player{
		ID:    id,
		Name:  name,
		Color: c,
		Clock: NewClock(initialTime),
	}
}

// DecrementTime burns d off the player's clock, flooring at zero.
func (p *Player) DecrementTime(d time.Duration) {
	p.Clock.Decrement(d)
}

func (p *Player) OutOfTime() bool {
	return p.Clock.Expired()
}

// ClientPlayer is the wire shape of a seat in a state snapshot.
type ClientPlayer struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    Color  `json:"color"`
	TimeLeft int64  `json:"timeLeft"` // milliseconds
}

func (p *Player) client() ClientPlayer {
	return ClientPlayer{
		ID:       p.ID,
		Name:     p.Name,
		Color:    p.Color,
		TimeLeft: p.Clock.TimeLeft().Milliseconds(),
	}
}
