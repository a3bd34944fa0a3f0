package server

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuahBy/projetISY/internal/app/directory"
	"github.com/GuahBy/projetISY/internal/app/message"
	"github.com/GuahBy/projetISY/internal/pkg/errs"
	"github.com/GuahBy/projetISY/internal/pkg/logx"
)

func init() {
	logx.InitGlobalLogger(false)
}

type sent struct {
	env  message.Envelope
	addr *net.UDPAddr
}

// fakeSender records outgoing envelopes instead of hitting the network.
type fakeSender struct {
	out []sent
}

func (f *fakeSender) Send(e message.Envelope, addr *net.UDPAddr) *errs.CustomError {
	f.out = append(f.out, sent{env: e, addr: addr})
	return nil
}

func (f *fakeSender) reset() {
	f.out = nil
}

// byKind returns every recorded envelope of the given kind.
func (f *fakeSender) byKind(kind message.Kind) []sent {
	var matches []sent
	for _, s := range f.out {
		if s.env.Kind == kind {
			matches = append(matches, s)
		}
	}
	return matches
}

func addrFor(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
}

func newTestDispatcher(maxClients, maxGroups int) (*Dispatcher, *fakeSender, *directory.Directory) {
	dir := directory.New(maxClients, maxGroups)
	sender := &fakeSender{}
	return NewDispatcher(dir, sender, nil), sender, dir
}

// connect registers a user through the protocol and clears the recorder.
func connect(t *testing.T, d *Dispatcher, sender *fakeSender, username string, port int) {
	t.Helper()
	d.HandleEnvelope(message.New(message.KindConnect, username, "", "", ""), addrFor(port))
	acks := sender.byKind(message.KindConnectAck)
	require.NotEmpty(t, acks, "connect of %s was not acknowledged", username)
	sender.reset()
}

// joinGroup joins a user into a group through the protocol.
func joinGroup(t *testing.T, d *Dispatcher, sender *fakeSender, username, group string, port int) {
	t.Helper()
	d.HandleEnvelope(message.New(message.KindJoin, username, "", group, ""), addrFor(port))
	confirms := sender.byKind(message.KindJoin)
	require.NotEmpty(t, confirms, "join of %s into %s was not confirmed", username, group)
	sender.reset()
}

func TestConnectAcknowledgesWithRequestID(t *testing.T) {
	d, sender, dir := newTestDispatcher(10, 5)

	req := message.New(message.KindConnect, "alice", "", "", "")
	d.HandleEnvelope(req, addrFor(9001))

	acks := sender.byKind(message.KindConnectAck)
	require.Len(t, acks, 1)
	assert.Equal(t, req.ID, acks[0].env.ID)
	assert.Equal(t, message.ServerSender, acks[0].env.Sender)
	assert.Equal(t, addrFor(9001).String(), acks[0].addr.String())

	_, ok := dir.FindActiveUser("alice")
	assert.True(t, ok)
}

func TestConnectCapacityIsRefused(t *testing.T) {
	d, sender, dir := newTestDispatcher(1, 5)
	connect(t, d, sender, "alice", 9001)

	req := message.New(message.KindConnect, "bob", "", "", "")
	d.HandleEnvelope(req, addrFor(9002))

	require.Empty(t, sender.byKind(message.KindConnectAck))
	rejections := sender.byKind(message.KindPublic)
	require.Len(t, rejections, 1)
	assert.Equal(t, message.ServerSender, rejections[0].env.Sender)
	assert.Equal(t, req.ID, rejections[0].env.ID)

	_, ok := dir.FindActiveUser("bob")
	assert.False(t, ok)
}

func TestConnectIsReacknowledgedForActiveUser(t *testing.T) {
	d, sender, _ := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)

	// A retransmitted handshake gets a fresh acknowledgement.
	d.HandleEnvelope(message.New(message.KindConnect, "alice", "", "", ""), addrFor(9001))
	assert.Len(t, sender.byKind(message.KindConnectAck), 1)
}

func TestJoinCreatesGroupAndConfirms(t *testing.T) {
	d, sender, dir := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)

	d.HandleEnvelope(message.New(message.KindJoin, "alice", "", "devs", ""), addrFor(9001))

	confirms := sender.byKind(message.KindJoin)
	require.Len(t, confirms, 1)
	status, color := message.ParseJoinStatus(confirms[0].env.Content)
	assert.Equal(t, message.JoinStatusCreated, status)
	assert.Equal(t, message.DefaultColorName, color)

	g, ok := dir.FindActiveGroup("devs")
	require.True(t, ok)
	assert.Contains(t, g.Members, "alice")
	assert.True(t, dir.IsAdmin("devs", "alice"))
}

func TestJoinRegistersUnknownSender(t *testing.T) {
	d, sender, dir := newTestDispatcher(10, 5)

	// No prior connect: the join itself registers the user.
	d.HandleEnvelope(message.New(message.KindJoin, "alice", "", "devs", ""), addrFor(9001))

	require.Len(t, sender.byKind(message.KindJoin), 1)
	_, ok := dir.FindActiveUser("alice")
	assert.True(t, ok)
}

func TestJoinAnnouncesToExistingMembers(t *testing.T) {
	d, sender, _ := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)
	joinGroup(t, d, sender, "alice", "devs", 9001)
	connect(t, d, sender, "bob", 9002)

	d.HandleEnvelope(message.New(message.KindJoin, "bob", "", "devs", ""), addrFor(9002))

	joins := sender.byKind(message.KindJoin)
	require.Len(t, joins, 2)

	var announcement, confirmation *sent
	for i := range joins {
		if joins[i].addr.Port == 9001 {
			announcement = &joins[i]
		} else {
			confirmation = &joins[i]
		}
	}
	require.NotNil(t, announcement, "existing member was not told about the join")
	require.NotNil(t, confirmation, "joiner was not confirmed")

	assert.Equal(t, "bob", announcement.env.Sender)
	status, _ := message.ParseJoinStatus(confirmation.env.Content)
	assert.Equal(t, message.JoinStatusJoined, status)
}

func TestPublicBroadcastExcludesSender(t *testing.T) {
	d, sender, _ := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)
	joinGroup(t, d, sender, "alice", "devs", 9001)
	connect(t, d, sender, "bob", 9002)
	joinGroup(t, d, sender, "bob", "devs", 9002)

	d.HandleEnvelope(message.New(message.KindPublic, "alice", "", "devs", "hi"), addrFor(9001))

	require.Len(t, sender.out, 1)
	assert.Equal(t, 9002, sender.out[0].addr.Port)
	assert.Equal(t, "hi", sender.out[0].env.Content)
}

func TestPublicToMissingGroupNotifiesSender(t *testing.T) {
	d, sender, _ := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)

	d.HandleEnvelope(message.New(message.KindPublic, "alice", "", "nowhere", "hi"), addrFor(9001))

	notices := sender.byKind(message.KindPublic)
	require.Len(t, notices, 1)
	assert.Equal(t, message.ServerSender, notices[0].env.Sender)
	assert.Equal(t, errs.NewError(errs.ErrGroupNotFound, "nowhere").Message, notices[0].env.Content)
}

func TestPrivateIsRelayedToRecipientOnly(t *testing.T) {
	d, sender, _ := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)
	connect(t, d, sender, "bob", 9002)

	d.HandleEnvelope(message.New(message.KindPrivate, "alice", "bob", "", "psst"), addrFor(9001))

	require.Len(t, sender.out, 1)
	assert.Equal(t, 9002, sender.out[0].addr.Port)
	assert.Equal(t, message.KindPrivate, sender.out[0].env.Kind)
}

func TestPrivateToUnknownUserNotifiesSender(t *testing.T) {
	d, sender, _ := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)

	d.HandleEnvelope(message.New(message.KindPrivate, "alice", "ghost", "", "psst"), addrFor(9001))

	notices := sender.byKind(message.KindPublic)
	require.Len(t, notices, 1)
	assert.Equal(t, 9001, notices[0].addr.Port)
}

func TestChangeColorRequiresAdmin(t *testing.T) {
	d, sender, dir := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)
	joinGroup(t, d, sender, "alice", "devs", 9001)
	connect(t, d, sender, "bob", 9002)
	joinGroup(t, d, sender, "bob", "devs", 9002)

	d.HandleEnvelope(message.New(message.KindChangeColor, "bob", "", "devs", "cyan"), addrFor(9002))

	notices := sender.byKind(message.KindPublic)
	require.Len(t, notices, 1)
	assert.Equal(t, errs.NewError(errs.ErrUnauthorized).Message, notices[0].env.Content)

	g, _ := dir.FindActiveGroup("devs")
	assert.Equal(t, message.DefaultColorName, g.Color)
}

func TestChangeColorRelaysToAllMembers(t *testing.T) {
	d, sender, dir := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)
	joinGroup(t, d, sender, "alice", "devs", 9001)
	connect(t, d, sender, "bob", 9002)
	joinGroup(t, d, sender, "bob", "devs", 9002)

	d.HandleEnvelope(message.New(message.KindChangeColor, "alice", "", "devs", "cyan"), addrFor(9001))

	relays := sender.byKind(message.KindChangeColor)
	require.Len(t, relays, 2)

	g, _ := dir.FindActiveGroup("devs")
	assert.Equal(t, "cyan", g.Color)
}

func TestChangeColorRejectsUnknownColor(t *testing.T) {
	d, sender, dir := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)
	joinGroup(t, d, sender, "alice", "devs", 9001)

	d.HandleEnvelope(message.New(message.KindChangeColor, "alice", "", "devs", "mauve"), addrFor(9001))

	require.Empty(t, sender.byKind(message.KindChangeColor))
	g, _ := dir.FindActiveGroup("devs")
	assert.Equal(t, message.DefaultColorName, g.Color)
}

func TestKickRemovesTargetAndNotifies(t *testing.T) {
	d, sender, dir := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)
	joinGroup(t, d, sender, "alice", "devs", 9001)
	connect(t, d, sender, "bob", 9002)
	joinGroup(t, d, sender, "bob", "devs", 9002)

	d.HandleEnvelope(message.New(message.KindKickUser, "alice", "", "devs", "bob"), addrFor(9001))

	leaves := sender.byKind(message.KindLeave)
	require.Len(t, leaves, 1)
	assert.Equal(t, 9002, leaves[0].addr.Port)
	assert.Equal(t, "bob", leaves[0].env.Recipient)

	g, _ := dir.FindActiveGroup("devs")
	assert.NotContains(t, g.Members, "bob")
}

func TestKickRejectsSelfAndNonAdmin(t *testing.T) {
	d, sender, _ := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)
	joinGroup(t, d, sender, "alice", "devs", 9001)
	connect(t, d, sender, "bob", 9002)
	joinGroup(t, d, sender, "bob", "devs", 9002)

	d.HandleEnvelope(message.New(message.KindKickUser, "bob", "", "devs", "alice"), addrFor(9002))
	notices := sender.byKind(message.KindPublic)
	require.Len(t, notices, 1)
	assert.Equal(t, errs.NewError(errs.ErrUnauthorized).Message, notices[0].env.Content)
	sender.reset()

	d.HandleEnvelope(message.New(message.KindKickUser, "alice", "", "devs", "alice"), addrFor(9001))
	notices = sender.byKind(message.KindPublic)
	require.Len(t, notices, 1)
	assert.Equal(t, errs.NewError(errs.ErrSelfAction).Message, notices[0].env.Content)
}

func TestPromoteAndDemoteFlow(t *testing.T) {
	d, sender, dir := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)
	joinGroup(t, d, sender, "alice", "devs", 9001)
	connect(t, d, sender, "bob", 9002)
	joinGroup(t, d, sender, "bob", "devs", 9002)

	d.HandleEnvelope(message.New(message.KindPromoteAdmin, "alice", "", "devs", "bob"), addrFor(9001))
	assert.True(t, dir.IsAdmin("devs", "bob"))
	// One notice to bob plus one broadcast to each member.
	assert.Len(t, sender.byKind(message.KindPublic), 3)
	sender.reset()

	d.HandleEnvelope(message.New(message.KindDemoteAdmin, "alice", "", "devs", "bob"), addrFor(9001))
	assert.False(t, dir.IsAdmin("devs", "bob"))
}

func TestDemoteLastAdminIsRefused(t *testing.T) {
	d, sender, dir := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)
	joinGroup(t, d, sender, "alice", "devs", 9001)
	connect(t, d, sender, "bob", 9002)
	joinGroup(t, d, sender, "bob", "devs", 9002)
	d.HandleEnvelope(message.New(message.KindPromoteAdmin, "alice", "", "devs", "bob"), addrFor(9001))
	sender.reset()

	// alice steps down herself, leaving bob as sole admin.
	d.HandleEnvelope(message.New(message.KindDemoteAdmin, "alice", "", "devs", "alice"), addrFor(9001))
	assert.False(t, dir.IsAdmin("devs", "alice"))
	sender.reset()

	d.HandleEnvelope(message.New(message.KindDemoteAdmin, "bob", "", "devs", "bob"), addrFor(9002))
	require.True(t, dir.IsAdmin("devs", "bob"))

	notices := sender.byKind(message.KindPublic)
	require.NotEmpty(t, notices)
	assert.Equal(t, errs.NewError(errs.ErrLastAdmin).Message, notices[0].env.Content)
}

func TestMergeRequiresTargetAdmin(t *testing.T) {
	d, sender, dir := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)
	joinGroup(t, d, sender, "alice", "devs", 9001)
	connect(t, d, sender, "bob", 9002)
	joinGroup(t, d, sender, "bob", "ops", 9002)

	d.HandleEnvelope(message.New(message.KindMergeGroups, "bob", "", "devs",
		message.FormatMergeSpec("devs", "ops")), addrFor(9002))

	notices := sender.byKind(message.KindPublic)
	require.Len(t, notices, 1)
	assert.Equal(t, errs.NewError(errs.ErrUnauthorized).Message, notices[0].env.Content)

	_, ok := dir.FindActiveGroup("ops")
	assert.True(t, ok)
}

func TestMergeAbsorbsSourceMembers(t *testing.T) {
	d, sender, dir := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)
	joinGroup(t, d, sender, "alice", "devs", 9001)
	connect(t, d, sender, "bob", 9002)
	joinGroup(t, d, sender, "bob", "ops", 9002)

	d.HandleEnvelope(message.New(message.KindMergeGroups, "alice", "", "devs",
		message.FormatMergeSpec("devs", "ops")), addrFor(9001))

	_, ok := dir.FindActiveGroup("ops")
	assert.False(t, ok)

	members, ok := dir.GroupMembers("devs")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"alice", "bob"}, members)

	// bob is re-confirmed into the surviving group.
	joins := sender.byKind(message.KindJoin)
	require.Len(t, joins, 1)
	assert.Equal(t, 9002, joins[0].addr.Port)
	assert.Equal(t, "devs", joins[0].env.Group)

	// Everyone in the surviving group hears the merge notice.
	assert.Len(t, sender.byKind(message.KindPublic), 2)
}

func TestDisconnectDeactivatesUser(t *testing.T) {
	d, sender, dir := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)
	joinGroup(t, d, sender, "alice", "devs", 9001)

	d.HandleEnvelope(message.New(message.KindDisconnect, "alice", "", "", ""), addrFor(9001))

	_, ok := dir.FindActiveUser("alice")
	assert.False(t, ok)

	g, ok := dir.FindActiveGroup("devs")
	require.True(t, ok)
	assert.Empty(t, g.Members)
}

func TestListUsersResponseEchoesRequestID(t *testing.T) {
	d, sender, _ := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)
	joinGroup(t, d, sender, "alice", "devs", 9001)

	req := message.New(message.KindListUsers, "alice", "", "", "")
	d.HandleEnvelope(req, addrFor(9001))

	responses := sender.byKind(message.KindListUsersResponse)
	require.Len(t, responses, 1)
	assert.Equal(t, req.ID, responses[0].env.ID)

	entries := message.DecodeUserList(responses[0].env.Content)
	require.Len(t, entries, 1)
	assert.Equal(t, message.UserEntry{Username: "alice", Group: "devs"}, entries[0])
}

func TestListGroupsResponseEchoesRequestID(t *testing.T) {
	d, sender, _ := newTestDispatcher(10, 5)
	connect(t, d, sender, "alice", 9001)
	joinGroup(t, d, sender, "alice", "devs", 9001)

	req := message.New(message.KindListGroups, "alice", "", "", "")
	d.HandleEnvelope(req, addrFor(9001))

	responses := sender.byKind(message.KindListGroupsResponse)
	require.Len(t, responses, 1)
	assert.Equal(t, req.ID, responses[0].env.ID)

	entries := message.DecodeGroupList(responses[0].env.Content)
	require.Len(t, entries, 1)
	assert.Equal(t, message.GroupEntry{Name: "devs", MemberCount: 1, AdminCount: 1}, entries[0])
}

func TestListRequestFromUnknownUserIsDropped(t *testing.T) {
	d, sender, _ := newTestDispatcher(10, 5)

	d.HandleEnvelope(message.New(message.KindListUsers, "ghost", "", "", ""), addrFor(9001))
	assert.Empty(t, sender.out)
}
