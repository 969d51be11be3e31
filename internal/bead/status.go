package bead

// Status - is the state of the turn/win machine.
type Status int

const (
	FirstTurn Status = iota
	SecondTurn
	FirstWins
	SecondWins
)

func (that Status) String() string {
	switch that {
	case FirstTurn:
		return "player1_turn"
	case SecondTurn:
		return "player2_turn"
	case FirstWins:
		return "player1_wins"
	case SecondWins:
		return "player2_wins"
	default:
		return "unknown"
	}
}

func (that Status) Finished() bool {
	return that == FirstWins || that == SecondWins
}

// Winner returns NoPlayer while the game is running.
func (that Status) Winner() Player {
	switch that {
	case FirstWins:
		return First
	case SecondWins:
		return Second
	default:
		return NoPlayer
	}
}

// Turn returns NoPlayer once the game is over.
func (that Status) Turn() Player {
	switch that {
	case FirstTurn:
		return First
	case SecondTurn:
		return Second
	default:
		return NoPlayer
	}
}

func winFor(player Player) Status {
	if player == First {
		return FirstWins
	}

	return SecondWins
}

func turnFor(player Player) Status {
	if player == First {
		return FirstTurn
	}

	return SecondTurn
}

// Status evaluates the position for the player to move. A side without beads
// loses whoever is nominally on turn; the player to move also loses when
// blocked.
func (that *Engine) Status() Status {
	current := that.current

	if that.CountBeads(current) == 0 {
		return winFor(current.Opponent())
	}

	if that.CountBeads(current.Opponent()) == 0 {
		return winFor(current)
	}

	if !that.HasAnyValidMove(current) {
		return winFor(current.Opponent())
	}

	return turnFor(current)
}
