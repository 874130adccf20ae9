package domain

// GameRole identifies the character a player was dealt.
type GameRole string

const (
	RoleVillager       GameRole = "VILLAGER"
	RoleWerewolf       GameRole = "WEREWOLF"
	RoleSeer           GameRole = "SEER"
	RoleTalkativeSeer  GameRole = "TALKATIVE_SEER"
	RoleWitch          GameRole = "WITCH"
	RoleHunter         GameRole = "HUNTER"
	RoleGuard          GameRole = "GUARD"
	RoleCupid          GameRole = "CUPID"
	RoleLittleGirl     GameRole = "LITTLE_GIRL"
	RoleWhiteWolf      GameRole = "WHITE_WOLF"
	RoleBlackWolf      GameRole = "BLACK_WOLF"
	RoleRedRidingHood  GameRole = "RED_RIDING_HOOD"
	RoleBlueRidingHood GameRole = "BLUE_RIDING_HOOD"
	RoleWolfRidingHood GameRole = "WOLF_RIDING_HOOD"
	RoleDictator       GameRole = "DICTATOR"
	RoleMercenary      GameRole = "MERCENARY"
	RoleHeir           GameRole = "HEIR"
	RolePlunderer      GameRole = "PLUNDERER"
)

// Team is the side a role wins with.
type Team string

const (
	TeamVillagers  Team = "VILLAGERS"
	TeamWerewolves Team = "WEREWOLVES"
	TeamSolo       Team = "SOLO"
)

// TeamOf maps a role to its current team. The Mercenary counts as SOLO only
// until its day-1 resolution; callers that track the downgrade pass the
// post-downgrade role.
func TeamOf(role GameRole) Team {
	switch role {
	case RoleWerewolf, RoleBlackWolf, RoleWolfRidingHood:
		return TeamWerewolves
	case RoleWhiteWolf, RoleMercenary:
		return TeamSolo
	default:
		return TeamVillagers
	}
}

// IsWolf reports membership in the werewolf pack for night hunting.
// The White Wolf hunts with the pack but wins alone.
func IsWolf(role GameRole) bool {
	switch role {
	case RoleWerewolf, RoleBlackWolf, RoleWolfRidingHood, RoleWhiteWolf:
		return true
	}
	return false
}

// NightCapable reports whether the role submits an action during NIGHT_PHASE.
// Cupid and Heir act on the first night only; the caller checks the day.
func NightCapable(role GameRole, dayNumber int) bool {
	switch role {
	case RoleWerewolf, RoleBlackWolf, RoleWolfRidingHood, RoleWhiteWolf,
		RoleSeer, RoleTalkativeSeer, RoleWitch, RoleGuard:
		return true
	case RoleCupid, RoleHeir:
		return dayNumber == 1
	}
	return false
}
