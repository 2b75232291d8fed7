package rank

import (
	"fmt"
	"strconv"
)

// Redis keys. One sorted set per scope:
//
//	rank:total          every user, aggregated over all teams and years
//	rank:team:<teamId>  users with activity for that team, aggregated over all years
//
// Member: decimal user id. Score: CacheScore of the scope's aggregate.
const (
	keyPrefix   = "rank:"
	totalKey    = keyPrefix + "total"
	teamKeyFmt  = keyPrefix + "team:%d"
	scopeKeyPat = keyPrefix + "*"
)

// Scope is a ranking partition: the global total or one team.
type Scope struct {
	teamID int64
}

// TotalScope is the global scope.
func TotalScope() Scope {
	return Scope{}
}

// TeamScope is the scope of one team. teamID must be positive.
func TeamScope(teamID int64) Scope {
	return Scope{teamID: teamID}
}

// IsTotal reports whether s is the global scope.
func (s Scope) IsTotal() bool {
	return s.teamID == 0
}

// TeamID returns the team id of a team scope, 0 for the total scope.
func (s Scope) TeamID() int64 {
	return s.teamID
}

func (s Scope) String() string {
	if s.IsTotal() {
		return "total"
	}
	return strconv.FormatInt(s.teamID, 10)
}

func (s Scope) key() string {
	if s.IsTotal() {
		return totalKey
	}
	return fmt.Sprintf(teamKeyFmt, s.teamID)
}

func member(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
