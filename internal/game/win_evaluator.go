package game

import (
	"werewolf-service/domain"
)

// evaluateWin checks the end conditions over the alive set. The second
// return is true when the game is over; a nil team then means a draw.
func evaluateWin(players []*domain.Player) (*domain.Team, bool) {
	var alive []*domain.Player
	for _, p := range players {
		if p.State == domain.PlayerAlive {
			alive = append(alive, p)
		}
	}

	if len(alive) == 0 {
		return nil, true
	}

	// Two lovers standing alone count as a villager victory regardless of
	// their roles.
	if len(alive) == 2 &&
		alive[0].LinkedTo != nil && *alive[0].LinkedTo == alive[1].ID &&
		alive[1].LinkedTo != nil && *alive[1].LinkedTo == alive[0].ID {
		team := domain.TeamVillagers
		return &team, true
	}

	if len(alive) == 1 && alive[0].Role == domain.RoleWhiteWolf {
		team := domain.TeamSolo
		return &team, true
	}

	wolves, villagers := 0, 0
	soloAlive, whiteWolfAlive := false, false
	for _, p := range alive {
		switch domain.TeamOf(p.Role) {
		case domain.TeamWerewolves:
			wolves++
		case domain.TeamSolo:
			soloAlive = true
			if p.Role == domain.RoleWhiteWolf {
				whiteWolfAlive = true
			}
		default:
			villagers++
		}
	}

	if wolves > 0 && wolves >= villagers && !soloAlive {
		team := domain.TeamWerewolves
		return &team, true
	}
	if wolves == 0 && !whiteWolfAlive {
		team := domain.TeamVillagers
		return &team, true
	}
	return nil, false
}
