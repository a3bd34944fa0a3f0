/*
Package directory implements the server's in-memory registry of users and groups.

This file defines the User slot. A slot is created on first contact and never
deleted while the process runs: disconnecting marks it inactive, and the slot is
reused when the same username reconnects.
*/
package directory

import (
	"net"
	"time"

	"github.com/GuahBy/projetISY/internal/app/message"
)

// User represents one registered chat participant.
type User struct {
	// Username is the unique, case-sensitive identity claimed at first contact.
	Username string

	// Addr is the user's last-known transport address, refreshed on (re)connect.
	Addr *net.UDPAddr

	// Port is the last-known source port, kept alongside Addr.
	Port int

	// Active distinguishes a connected user from a logically removed slot.
	Active bool

	// CurrentGroup is the name of the group the user belongs to, empty for none.
	CurrentGroup string

	// Color is the wire color name used for the user's prompt.
	Color string

	// LastActivity records the time of the most recent (re)registration.
	LastActivity time.Time
}

// reactivate brings an inactive slot back to life for a reconnecting user,
// refreshing the address and resetting the display color to the default.
func (u *User) reactivate(addr *net.UDPAddr, port int) {
	u.Active = true
	u.Addr = addr
	u.Port = port
	u.Color = message.DefaultColorName
	u.LastActivity = time.Now()
}

// deactivate logically removes the user while keeping the slot for reuse.
func (u *User) deactivate() {
	u.Active = false
}
