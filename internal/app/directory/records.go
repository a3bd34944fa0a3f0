/*
Package directory implements the server's in-memory registry of users and groups.

This file defines the plain snapshot records used to persist the directory
across restarts. Restored users are always marked inactive: no stale "active"
state survives a restart, and every client must redo its connect handshake.
*/
package directory

import "net"

// UserRecord is the persisted form of a user slot.
type UserRecord struct {
	Username     string `json:"username"`
	CurrentGroup string `json:"currentGroup,omitempty"`
	Color        string `json:"color"`
	Addr         string `json:"addr,omitempty"`
	Port         int    `json:"port,omitempty"`
}

// GroupRecord is the persisted form of a group slot.
type GroupRecord struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
	Admins  []string `json:"admins"`
	Active  bool     `json:"active"`
	Color   string   `json:"color"`
}

// Snapshot is the persisted form of the whole directory aggregate.
type Snapshot struct {
	Users  []UserRecord  `json:"users"`
	Groups []GroupRecord `json:"groups"`
}

// Snapshot captures the current directory state as plain records.
func (d *Directory) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := Snapshot{
		Users:  make([]UserRecord, 0, len(d.users)),
		Groups: make([]GroupRecord, 0, len(d.groups)),
	}
	for _, u := range d.users {
		rec := UserRecord{
			Username:     u.Username,
			CurrentGroup: u.CurrentGroup,
			Color:        u.Color,
			Port:         u.Port,
		}
		if u.Addr != nil {
			rec.Addr = u.Addr.String()
		}
		snap.Users = append(snap.Users, rec)
	}
	for _, g := range d.groups {
		snap.Groups = append(snap.Groups, GroupRecord{
			Name:    g.Name,
			Members: append([]string(nil), g.Members...),
			Admins:  append([]string(nil), g.Admins...),
			Active:  g.Active,
			Color:   g.Color,
		})
	}
	return snap
}

// Restore replaces the directory contents with the snapshot's records,
// truncated to the configured capacities. Every restored user is marked
// inactive and must reconnect before it is considered live again.
func (d *Directory) Restore(snap Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.users = d.users[:0]
	d.groups = d.groups[:0]

	for _, rec := range snap.Users {
		if len(d.users) >= d.maxClients {
			d.logger.Warn().Str("username", rec.Username).Msg("Snapshot user dropped: user table full.")
			break
		}
		u := &User{
			Username:     rec.Username,
			CurrentGroup: rec.CurrentGroup,
			Color:        rec.Color,
			Port:         rec.Port,
			Active:       false,
		}
		if rec.Addr != "" {
			if addr, err := net.ResolveUDPAddr("udp", rec.Addr); err == nil {
				u.Addr = addr
			}
		}
		d.users = append(d.users, u)
	}

	for _, rec := range snap.Groups {
		if len(d.groups) >= d.maxGroups {
			d.logger.Warn().Str("group", rec.Name).Msg("Snapshot group dropped: group table full.")
			break
		}
		d.groups = append(d.groups, &Group{
			Name:    rec.Name,
			Members: append([]string(nil), rec.Members...),
			Admins:  append([]string(nil), rec.Admins...),
			Active:  rec.Active,
			Color:   rec.Color,
		})
	}

	d.logger.Info().
		Int("users", len(d.users)).
		Int("groups", len(d.groups)).
		Msg("Directory restored from snapshot; all users marked inactive.")
}
