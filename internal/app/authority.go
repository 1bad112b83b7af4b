package app

import (
	"github.com/vividbreeze/planning-poker/internal/core"
	"github.com/vividbreeze/planning-poker/internal/domain"
)

// Two independent credentials exist and are never conflated: the bearer admin
// token (reconnect-proof, grants everything) and the session identifier
// (connection affinity, grants only what the admin delegated via settings).

// actorIsAdmin reports admin authority: either the caller presented the
// room's admin token verbatim, or the acting connection's registered session
// is the admin-flagged participant.
func actorIsAdmin(room *domain.Room, sid core.SessionID, token string) bool {
	if token != "" && token == room.AdminToken {
		return true
	}
	p, ok := room.Participants[sid]
	return ok && p.IsAdmin
}

func canReveal(room *domain.Room, sid core.SessionID, token string) bool {
	return actorIsAdmin(room, sid, token) || room.Settings.AllowOthersToShowEstimates
}

func canClearEstimates(room *domain.Room, sid core.SessionID, token string) bool {
	return actorIsAdmin(room, sid, token) || room.Settings.AllowOthersToClearEstimates
}

func canClearUsers(room *domain.Room, sid core.SessionID, token string) bool {
	return actorIsAdmin(room, sid, token) || room.Settings.AllowOthersToClearUsers
}

// canDeleteEstimate: own estimates are always deletable, regardless of
// delegation.
func canDeleteEstimate(room *domain.Room, sid core.SessionID, token string, target core.SessionID) bool {
	if sid == target {
		return true
	}
	return actorIsAdmin(room, sid, token) || room.Settings.AllowOthersToDeleteEstimates
}
