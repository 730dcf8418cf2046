// Package authz is the single place where visibility and mutation rights
// are derived. Every engine operation and every read path consults these
// functions per call; results are never cached, since relationship state
// can change between evaluations.
package authz

// CanViewGame reports whether viewer (nil for anonymous) may see a game.
// Public games are visible to everyone; private games only to their admin
// and members.
func CanViewGame(viewerUserID *uint, adminUserID uint, private bool, viewerIsMember bool) bool {
	if !private {
		return true
	}
	if viewerUserID == nil {
		return false
	}
	return *viewerUserID == adminUserID || viewerIsMember
}

// CanMutateGame reports whether viewer may change a game's details or
// roster. Only the admin ever can.
func CanMutateGame(viewerUserID *uint, adminUserID uint) bool {
	return viewerUserID != nil && *viewerUserID == adminUserID
}

// CanEditProfile reports whether viewer may mutate a profile or its
// friend list. Only the identity itself can.
func CanEditProfile(viewerUserID *uint, ownerUserID uint) bool {
	return viewerUserID != nil && *viewerUserID == ownerUserID
}
