package server

const (
	phaseLobby     = "lobby"
	phaseCountdown = "countdown"
	phaseVoting    = "voting"
	phaseRevealed  = "revealed"
)

var phaseTransitions = map[string][]string{
	phaseLobby:     {phaseCountdown, phaseRevealed},
	phaseCountdown: {phaseVoting, phaseRevealed},
	phaseVoting:    {phaseRevealed},
	phaseRevealed:  {phaseRevealed},
}

func canTransition(from, to string) bool {
	for _, next := range phaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func isVotingOpen(phase string) bool {
	return phase == phaseCountdown || phase == phaseVoting
}
