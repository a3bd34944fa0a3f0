/*
Package message defines the wire envelope exchanged between clients and the server.

This file defines the delimited directory summary encodings carried in the
content of LIST_USERS_RESPONSE and LIST_GROUPS_RESPONSE envelopes.
*/
package message

import (
	"fmt"
	"strconv"
	"strings"
)

// NoGroupSentinel is the literal written in a user list entry when the user
// belongs to no group. Kept as-is for wire compatibility.
const NoGroupSentinel = "aucun"

// UserEntry is one element of a user list summary.
type UserEntry struct {
	Username string
	Group    string
}

// GroupEntry is one element of a group list summary.
type GroupEntry struct {
	Name        string
	MemberCount int
	AdminCount  int
}

// EncodeUserList renders user entries as "username:groupname|" repeated,
// substituting the no-group sentinel for users outside any group.
func EncodeUserList(entries []UserEntry) string {
	var b strings.Builder
	for _, e := range entries {
		group := e.Group
		if group == "" {
			group = NoGroupSentinel
		}
		b.WriteString(e.Username)
		b.WriteString(":")
		b.WriteString(group)
		b.WriteString("|")
	}
	return b.String()
}

// DecodeUserList parses a user list summary. Entries that do not match the
// encoding are skipped, mirroring the tolerant client-side parsing of the
// wire format.
func DecodeUserList(content string) []UserEntry {
	var entries []UserEntry
	for _, token := range strings.Split(content, "|") {
		if token == "" {
			continue
		}
		username, group, ok := strings.Cut(token, ":")
		if !ok || username == "" {
			continue
		}
		if group == NoGroupSentinel {
			group = ""
		}
		entries = append(entries, UserEntry{Username: username, Group: group})
	}
	return entries
}

// EncodeGroupList renders group entries as "groupname:memberCount:adminCount|" repeated.
func EncodeGroupList(entries []GroupEntry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s:%d:%d|", e.Name, e.MemberCount, e.AdminCount)
	}
	return b.String()
}

// DecodeGroupList parses a group list summary, skipping malformed entries.
func DecodeGroupList(content string) []GroupEntry {
	var entries []GroupEntry
	for _, token := range strings.Split(content, "|") {
		if token == "" {
			continue
		}
		parts := strings.Split(token, ":")
		if len(parts) != 3 {
			continue
		}
		members, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		admins, err := strconv.Atoi(parts[2])
		if err != nil {
			continue
		}
		entries = append(entries, GroupEntry{Name: parts[0], MemberCount: members, AdminCount: admins})
	}
	return entries
}
