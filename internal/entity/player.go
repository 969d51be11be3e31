package entity

import "github.com/rocketscienceinc/bead-backend/internal/bead"

const botIDPrefix = "bot:"

type Player struct {
	ID     string      `json:"id"`
	Number bead.Player `json:"number,omitempty"`
	GameID string      `json:"game_id,omitempty"`
	Bot    bool        `json:"bot,omitempty"`
}

func NewBotPlayer(gameID string, number bead.Player) *Player {
	return &Player{
		ID:     botIDPrefix + gameID,
		Number: number,
		GameID: gameID,
		Bot:    true,
	}
}

func (that *Player) IsBot() bool {
	return that.Bot
}

// Leave detaches the player from its game.
func (that *Player) Leave() {
	that.GameID = ""
	that.Number = bead.NoPlayer
}
