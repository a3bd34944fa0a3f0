/*
Package directory implements the server's in-memory registry of users and groups.

This file defines the Group slot and its membership/admin list helpers. Both
lists are insertion-ordered; removal shifts the remaining entries left and
never reorders them.
*/
package directory

import "github.com/GuahBy/projetISY/internal/app/message"

// Group represents one chat group.
type Group struct {
	// Name is unique among active groups; an inactive slot's name may be reactivated.
	Name string

	// Members is the insertion-ordered list of member usernames.
	Members []string

	// Admins is the insertion-ordered list of administrator usernames.
	Admins []string

	// Active distinguishes a live group from a merged-away slot.
	Active bool

	// Color is the wire color name shared by the whole group.
	Color string
}

// IsMember reports whether username is currently a member of the group.
func (g *Group) IsMember(username string) bool {
	return indexOf(g.Members, username) >= 0
}

// IsAdmin reports whether username is currently an administrator of the group.
func (g *Group) IsAdmin(username string) bool {
	return indexOf(g.Admins, username) >= 0
}

// removeMember drops username from the member list with a stable shift-left.
// It reports whether the user was a member.
func (g *Group) removeMember(username string) bool {
	i := indexOf(g.Members, username)
	if i < 0 {
		return false
	}
	g.Members = append(g.Members[:i], g.Members[i+1:]...)
	return true
}

// removeAdmin drops username from the admin list with a stable shift-left.
// It reports whether the user was an admin. The last-admin rule is enforced
// by the caller, not here: kick strips admin status unconditionally.
func (g *Group) removeAdmin(username string) bool {
	i := indexOf(g.Admins, username)
	if i < 0 {
		return false
	}
	g.Admins = append(g.Admins[:i], g.Admins[i+1:]...)
	return true
}

// reactivate resurrects a merged-away slot as a brand-new group: prior
// membership is cleared and the creator, if any, becomes the sole admin.
func (g *Group) reactivate(creator string) {
	g.Active = true
	g.Members = g.Members[:0]
	g.Admins = g.Admins[:0]
	g.Color = message.DefaultColorName
	if creator != "" {
		g.Admins = append(g.Admins, creator)
	}
}

// indexOf returns the position of name in list, or -1.
func indexOf(list []string, name string) int {
	for i, entry := range list {
		if entry == name {
			return i
		}
	}
	return -1
}
