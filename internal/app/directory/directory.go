/*
Package directory implements the server's in-memory registry of users and groups.

This file defines the Directory aggregate: bounded user and group tables with
linear name lookup, guarded by a single mutex. The mutex is the access
coordinator for the whole aggregate; every operation acquires it for its full
read-modify-write sequence, and the dispatcher's single-goroutine request pump
guarantees that requests are applied one at a time on top of that.
*/
package directory

import (
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/GuahBy/projetISY/internal/app/message"
	"github.com/GuahBy/projetISY/internal/pkg/errs"
	"github.com/GuahBy/projetISY/internal/pkg/logx"
)

// Directory owns the full user and group collections. It is the single unit
// of synchronization: all mutating operations on users or groups touch this
// one aggregate under its lock.
type Directory struct {
	mu sync.Mutex

	users  []*User
	groups []*Group

	maxClients int
	maxGroups  int

	logger zerolog.Logger
}

// New constructs an empty Directory with the given capacity bounds.
// maxClients also bounds each group's member and admin lists.
func New(maxClients, maxGroups int) *Directory {
	return &Directory{
		users:      make([]*User, 0, maxClients),
		groups:     make([]*Group, 0, maxGroups),
		maxClients: maxClients,
		maxGroups:  maxGroups,
		logger:     logx.Logger().With().Str("component", "Directory").Logger(),
	}
}

// findUserSlot returns the slot for username, active or not. Callers hold d.mu.
func (d *Directory) findUserSlot(username string) *User {
	for _, u := range d.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

// findActiveUser returns the active slot for username. Callers hold d.mu.
func (d *Directory) findActiveUser(username string) *User {
	if u := d.findUserSlot(username); u != nil && u.Active {
		return u
	}
	return nil
}

// findGroupSlot returns the slot for name, active or not. Callers hold d.mu.
func (d *Directory) findGroupSlot(name string) *Group {
	for _, g := range d.groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// findActiveGroup returns the active slot for name. Callers hold d.mu.
func (d *Directory) findActiveGroup(name string) *Group {
	if g := d.findGroupSlot(name); g != nil && g.Active {
		return g
	}
	return nil
}

// AddOrReactivateUser registers username with its transport address. An
// inactive slot with the same name is reactivated (color reset to default)
// rather than duplicated; an active one is a DuplicateActive failure.
func (d *Directory) AddOrReactivateUser(username string, addr *net.UDPAddr, port int) *errs.CustomError {
	d.mu.Lock()
	defer d.mu.Unlock()

	if slot := d.findUserSlot(username); slot != nil {
		if slot.Active {
			return errs.NewError(errs.ErrDuplicateActive, username)
		}
		slot.reactivate(addr, port)
		d.logger.Info().Str("username", username).Msg("User slot reactivated.")
		return nil
	}

	if len(d.users) >= d.maxClients {
		return errs.NewError(errs.ErrCapacityExceeded)
	}

	d.users = append(d.users, &User{
		Username:     username,
		Addr:         addr,
		Port:         port,
		Active:       true,
		Color:        message.DefaultColorName,
		LastActivity: time.Now(),
	})
	d.logger.Info().Str("username", username).Int("user_slots", len(d.users)).Msg("User registered.")
	return nil
}

// DeactivateUser removes username from every group it belongs to and marks
// the slot inactive. The slot itself is retained for reactivation.
func (d *Directory) DeactivateUser(username string) *errs.CustomError {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot := d.findUserSlot(username)
	if slot == nil {
		return errs.NewError(errs.ErrUserNotFound, username)
	}

	for _, g := range d.groups {
		if g.removeMember(username) {
			g.removeAdmin(username)
		}
	}
	slot.CurrentGroup = ""
	slot.deactivate()
	d.logger.Info().Str("username", username).Msg("User deactivated.")
	return nil
}

// FindActiveUser looks up an active user by name. This is a query, not a
// fallible command: absence is reported through the boolean, never an error.
// The returned value is a copy; mutation goes through Directory operations.
func (d *Directory) FindActiveUser(username string) (User, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if u := d.findActiveUser(username); u != nil {
		return *u, true
	}
	return User{}, false
}

// FindActiveGroup looks up an active group by name, returning a deep copy.
func (d *Directory) FindActiveGroup(name string) (Group, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if g := d.findActiveGroup(name); g != nil {
		return copyGroup(g), true
	}
	return Group{}, false
}

// CreateOrReactivateGroup creates a group, or reactivates an inactive slot
// carrying the same name (prior membership cleared). The creator, if given,
// becomes the sole admin. An active group with the same name is a
// DuplicateActive failure; a full group table is CapacityExceeded.
func (d *Directory) CreateOrReactivateGroup(name, creator string) *errs.CustomError {
	d.mu.Lock()
	defer d.mu.Unlock()

	if slot := d.findGroupSlot(name); slot != nil {
		if slot.Active {
			return errs.NewError(errs.ErrDuplicateActive, name)
		}
		slot.reactivate(creator)
		d.logger.Info().Str("group", name).Str("creator", creator).Msg("Group slot reactivated.")
		return nil
	}

	if len(d.groups) >= d.maxGroups {
		return errs.NewError(errs.ErrCapacityExceeded)
	}

	g := &Group{
		Name:   name,
		Active: true,
		Color:  message.DefaultColorName,
	}
	if creator != "" {
		g.Admins = append(g.Admins, creator)
	}
	d.groups = append(d.groups, g)
	d.logger.Info().Str("group", name).Str("creator", creator).Int("group_slots", len(d.groups)).Msg("Group created.")
	return nil
}

// AddMember adds an active user to an active group and mirrors the membership
// on the user's current-group attribute.
func (d *Directory) AddMember(groupName, username string) *errs.CustomError {
	d.mu.Lock()
	defer d.mu.Unlock()

	g := d.findActiveGroup(groupName)
	if g == nil {
		return errs.NewError(errs.ErrGroupNotFound, groupName)
	}
	u := d.findActiveUser(username)
	if u == nil {
		return errs.NewError(errs.ErrUserNotFound, username)
	}
	if g.IsMember(username) {
		return errs.NewError(errs.ErrAlreadyMember, username)
	}
	if len(g.Members) >= d.maxClients {
		return errs.NewError(errs.ErrGroupFull, groupName)
	}

	g.Members = append(g.Members, username)
	u.CurrentGroup = groupName
	return nil
}

// RemoveMember removes the user from the group's ordered member list and
// clears the user's current-group attribute. Removing a non-member is a
// NotMember failure and mutates nothing.
func (d *Directory) RemoveMember(groupName, username string) *errs.CustomError {
	d.mu.Lock()
	defer d.mu.Unlock()

	g := d.findActiveGroup(groupName)
	if g == nil {
		return errs.NewError(errs.ErrGroupNotFound, groupName)
	}
	if !g.removeMember(username) {
		return errs.NewError(errs.ErrNotMember, username)
	}

	if u := d.findUserSlot(username); u != nil {
		u.CurrentGroup = ""
	}
	return nil
}

// MergeGroups merges source into target: members of source not already in
// target are transferred (their current-group updated), admins of source not
// already admins of target are added, and source is deactivated with its
// lists cleared. Both transfers are capped at capacity; excess entries are
// silently dropped. It returns the
// pre-merge member list of source so the caller can notify each of them.
func (d *Directory) MergeGroups(targetName, sourceName string) ([]string, *errs.CustomError) {
	d.mu.Lock()
	defer d.mu.Unlock()

	target := d.findActiveGroup(targetName)
	if target == nil {
		return nil, errs.NewError(errs.ErrGroupNotFound, targetName)
	}
	source := d.findActiveGroup(sourceName)
	if source == nil {
		return nil, errs.NewError(errs.ErrGroupNotFound, sourceName)
	}
	if targetName == sourceName {
		return nil, errs.NewError(errs.ErrSelfMerge)
	}

	former := append([]string(nil), source.Members...)

	for _, username := range former {
		if target.IsMember(username) {
			continue
		}
		if len(target.Members) >= d.maxClients {
			d.logger.Warn().
				Str("target", targetName).
				Str("username", username).
				Msg("Merge member transfer dropped: target group full.")
			continue
		}
		target.Members = append(target.Members, username)
		if u := d.findUserSlot(username); u != nil {
			u.CurrentGroup = targetName
		}
	}

	for _, username := range source.Admins {
		if target.IsAdmin(username) {
			continue
		}
		if len(target.Admins) >= d.maxClients {
			d.logger.Warn().
				Str("target", targetName).
				Str("username", username).
				Msg("Merge admin transfer dropped: admin list full.")
			continue
		}
		target.Admins = append(target.Admins, username)
	}

	source.Active = false
	source.Members = source.Members[:0]
	source.Admins = source.Admins[:0]

	d.logger.Info().Str("target", targetName).Str("source", sourceName).Msg("Groups merged.")
	return former, nil
}

// IsAdmin reports whether username administers the named active group.
func (d *Directory) IsAdmin(groupName, username string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	g := d.findActiveGroup(groupName)
	return g != nil && g.IsAdmin(username)
}

// Promote grants admin rights to a current member of the group.
func (d *Directory) Promote(groupName, username string) *errs.CustomError {
	d.mu.Lock()
	defer d.mu.Unlock()

	g := d.findActiveGroup(groupName)
	if g == nil {
		return errs.NewError(errs.ErrGroupNotFound, groupName)
	}
	if g.IsAdmin(username) {
		return errs.NewError(errs.ErrAlreadyAdmin, username)
	}
	if !g.IsMember(username) {
		return errs.NewError(errs.ErrNotMember, username)
	}
	if len(g.Admins) >= d.maxClients {
		return errs.NewError(errs.ErrCapacityExceeded)
	}

	g.Admins = append(g.Admins, username)
	return nil
}

// Demote removes admin rights, refusing to drop the admin count to zero.
func (d *Directory) Demote(groupName, username string) *errs.CustomError {
	d.mu.Lock()
	defer d.mu.Unlock()

	g := d.findActiveGroup(groupName)
	if g == nil {
		return errs.NewError(errs.ErrGroupNotFound, groupName)
	}
	if !g.IsAdmin(username) {
		return errs.NewError(errs.ErrNotAdmin, username)
	}
	if len(g.Admins) <= 1 {
		return errs.NewError(errs.ErrLastAdmin)
	}

	g.removeAdmin(username)
	return nil
}

// Kick removes the user from the group. A kicked user is unconditionally
// stripped of admin status as part of removal, without the last-admin check.
func (d *Directory) Kick(groupName, username string) *errs.CustomError {
	d.mu.Lock()
	defer d.mu.Unlock()

	g := d.findActiveGroup(groupName)
	if g == nil {
		return errs.NewError(errs.ErrGroupNotFound, groupName)
	}

	g.removeAdmin(username)

	if !g.removeMember(username) {
		return errs.NewError(errs.ErrNotMember, username)
	}
	if u := d.findUserSlot(username); u != nil {
		u.CurrentGroup = ""
	}
	return nil
}

// SetGroupColor sets the shared display color of an active group.
// Admin authorization is the dispatcher's responsibility.
func (d *Directory) SetGroupColor(groupName, colorName string) *errs.CustomError {
	d.mu.Lock()
	defer d.mu.Unlock()

	g := d.findActiveGroup(groupName)
	if g == nil {
		return errs.NewError(errs.ErrGroupNotFound, groupName)
	}
	g.Color = colorName
	return nil
}

// GroupMembers returns a copy of the active group's member list.
func (d *Directory) GroupMembers(groupName string) ([]string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	g := d.findActiveGroup(groupName)
	if g == nil {
		return nil, false
	}
	return append([]string(nil), g.Members...), true
}

// ActiveUserAddr returns the last-known transport address of an active user.
func (d *Directory) ActiveUserAddr(username string) (*net.UDPAddr, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if u := d.findActiveUser(username); u != nil {
		return u.Addr, true
	}
	return nil, false
}

// UserSummaries returns one entry per active user for the list encoding.
func (d *Directory) UserSummaries() []message.UserEntry {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries := make([]message.UserEntry, 0, len(d.users))
	for _, u := range d.users {
		if !u.Active {
			continue
		}
		entries = append(entries, message.UserEntry{Username: u.Username, Group: u.CurrentGroup})
	}
	return entries
}

// GroupSummaries returns one entry per active, non-empty group.
func (d *Directory) GroupSummaries() []message.GroupEntry {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries := make([]message.GroupEntry, 0, len(d.groups))
	for _, g := range d.groups {
		if !g.Active || len(g.Members) == 0 {
			continue
		}
		entries = append(entries, message.GroupEntry{
			Name:        g.Name,
			MemberCount: len(g.Members),
			AdminCount:  len(g.Admins),
		})
	}
	return entries
}

// Counts returns the number of occupied user and group slots, active or not.
func (d *Directory) Counts() (users, groups int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.users), len(d.groups)
}

// copyGroup deep-copies a group so the caller can read it outside the lock.
func copyGroup(g *Group) Group {
	cp := *g
	cp.Members = append([]string(nil), g.Members...)
	cp.Admins = append([]string(nil), g.Admins...)
	return cp
}
