package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserListEncoding(t *testing.T) {
	entries := []UserEntry{
		{Username: "alice", Group: "devs"},
		{Username: "bob", Group: ""},
	}

	content := EncodeUserList(entries)
	assert.Equal(t, "alice:devs|bob:aucun|", content)

	decoded := DecodeUserList(content)
	assert.Equal(t, entries, decoded)
}

func TestDecodeUserListSkipsMalformedEntries(t *testing.T) {
	decoded := DecodeUserList("alice:devs|garbage|:nobody|bob:aucun|")
	assert.Equal(t, []UserEntry{
		{Username: "alice", Group: "devs"},
		{Username: "bob", Group: ""},
	}, decoded)
}

func TestGroupListEncoding(t *testing.T) {
	entries := []GroupEntry{
		{Name: "devs", MemberCount: 3, AdminCount: 1},
		{Name: "ops", MemberCount: 1, AdminCount: 1},
	}

	content := EncodeGroupList(entries)
	assert.Equal(t, "devs:3:1|ops:1:1|", content)

	decoded := DecodeGroupList(content)
	assert.Equal(t, entries, decoded)
}

func TestDecodeGroupListSkipsMalformedEntries(t *testing.T) {
	decoded := DecodeGroupList("devs:3:1|short|ops:x:1|late:1:2|")
	assert.Equal(t, []GroupEntry{
		{Name: "devs", MemberCount: 3, AdminCount: 1},
		{Name: "late", MemberCount: 1, AdminCount: 2},
	}, decoded)
}

func TestEmptyListsDecodeToNil(t *testing.T) {
	assert.Empty(t, DecodeUserList(""))
	assert.Empty(t, DecodeGroupList(""))
}
