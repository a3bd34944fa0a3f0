/*
Package server contains the server-side request pump and protocol dispatcher.

This file defines the Dispatcher, the per-request state machine: it receives
one decoded envelope with its source address, authorizes it against the
directory, applies the mutation, and emits zero or more response envelopes. A
broadcast is repeated unicast to each active group member. The dispatcher is
stateless between requests; the directory is the only state it consults.
*/
package server

import (
	"fmt"
	"net"

	"github.com/rs/zerolog"

	"github.com/GuahBy/projetISY/internal/app/directory"
	"github.com/GuahBy/projetISY/internal/app/message"
	"github.com/GuahBy/projetISY/internal/app/transport"
	"github.com/GuahBy/projetISY/internal/pkg/audit"
	"github.com/GuahBy/projetISY/internal/pkg/errs"
	"github.com/GuahBy/projetISY/internal/pkg/logx"
)

// Dispatcher applies one request at a time against the directory and sends
// the resulting responses through the transport.
type Dispatcher struct {
	dir    *directory.Directory
	out    transport.Sender
	sink   *audit.Sink
	logger zerolog.Logger
}

// NewDispatcher constructs a Dispatcher around the given collaborators.
func NewDispatcher(dir *directory.Directory, out transport.Sender, sink *audit.Sink) *Dispatcher {
	return &Dispatcher{
		dir:    dir,
		out:    out,
		sink:   sink,
		logger: logx.Logger().With().Str("component", "Dispatcher").Logger(),
	}
}

// HandleEnvelope dispatches one request by kind. Requests are processed
// strictly one at a time by the server's single receive loop, which together
// with the directory's lock yields a total order over directory mutations.
func (d *Dispatcher) HandleEnvelope(e message.Envelope, src *net.UDPAddr) {
	d.logger.Debug().
		Str("kind", string(e.Kind)).
		Str("sender", e.Sender).
		Str("src", src.String()).
		Msg("Handling request.")

	switch e.Kind {
	case message.KindConnect:
		d.handleConnect(e, src)
	case message.KindJoin:
		d.handleJoin(e, src)
	case message.KindLeave:
		d.handleLeave(e)
	case message.KindPublic:
		d.handlePublic(e)
	case message.KindPrivate:
		d.handlePrivate(e)
	case message.KindChangeColor:
		d.handleChangeColor(e)
	case message.KindCreateGroup:
		d.handleCreateGroup(e)
	case message.KindMergeGroups:
		d.handleMergeGroups(e)
	case message.KindKickUser:
		d.handleKickUser(e)
	case message.KindPromoteAdmin:
		d.handlePromoteAdmin(e)
	case message.KindDemoteAdmin:
		d.handleDemoteAdmin(e)
	case message.KindDisconnect:
		d.handleDisconnect(e)
	case message.KindListUsers:
		d.handleListUsers(e)
	case message.KindListGroups:
		d.handleListGroups(e)
	default:
		d.logger.Warn().Str("kind", string(e.Kind)).Str("sender", e.Sender).Msg("Unknown request kind.")
	}
}

// sendToUser delivers an envelope to a user's last-known address. A user
// whose address cannot be resolved is logged and skipped.
func (d *Dispatcher) sendToUser(username string, e message.Envelope) {
	addr, ok := d.dir.ActiveUserAddr(username)
	if !ok {
		d.logger.Warn().Str("username", username).Str("kind", string(e.Kind)).Msg("No resolvable address for recipient.")
		return
	}
	if err := d.out.Send(e, addr); err != nil {
		d.logger.Warn().Str("username", username).Str("kind", string(e.Kind)).Msg("Send abandoned after transport failure.")
	}
}

// broadcastToGroup unicasts an envelope to every current member of the group,
// excluding the named sender (empty string excludes nobody).
func (d *Dispatcher) broadcastToGroup(groupName string, e message.Envelope, excluded string) {
	members, ok := d.dir.GroupMembers(groupName)
	if !ok {
		d.logger.Warn().Str("group", groupName).Str("kind", string(e.Kind)).Msg("Broadcast target group not found.")
		return
	}
	for _, member := range members {
		if member == excluded {
			continue
		}
		d.sendToUser(member, e)
	}
}

// notifySender addresses a single error notice to the requester. Notices
// travel as PUBLIC envelopes from the reserved server identity; the failure
// never mutates the directory.
func (d *Dispatcher) notifySender(username string, cErr *errs.CustomError) {
	notice := message.New(message.KindPublic, message.ServerSender, username, "", cErr.Message)
	d.sendToUser(username, notice)
}

func (d *Dispatcher) handleConnect(e message.Envelope, src *net.UDPAddr) {
	if _, ok := d.dir.FindActiveUser(e.Sender); !ok {
		if cErr := d.dir.AddOrReactivateUser(e.Sender, src, src.Port); cErr != nil {
			ack := message.Reply(e, message.KindPublic, e.Sender, "", cErr.Message)
			if err := d.out.Send(ack, src); err != nil {
				d.logger.Warn().Str("sender", e.Sender).Msg("Connect rejection send failed.")
			}
			d.sink.Recordf(audit.EventConnect, "connect refused for %s: %s", e.Sender, cErr.Message)
			return
		}
	}

	ack := message.Reply(e, message.KindConnectAck, e.Sender, "", "OK")
	if err := d.out.Send(ack, src); err != nil {
		d.logger.Warn().Str("sender", e.Sender).Msg("Connect ack send failed.")
		return
	}

	d.logger.Info().Str("sender", e.Sender).Str("src", src.String()).Msg("User connected.")
	d.sink.Recordf(audit.EventConnect, "%s connected from %s", e.Sender, src.String())
}

func (d *Dispatcher) handleJoin(e message.Envelope, src *net.UDPAddr) {
	// Join doubles as first contact: register the sender if unknown.
	if _, ok := d.dir.FindActiveUser(e.Sender); !ok {
		if cErr := d.dir.AddOrReactivateUser(e.Sender, src, src.Port); cErr != nil {
			reject := message.New(message.KindPublic, message.ServerSender, e.Sender, "", cErr.Message)
			if err := d.out.Send(reject, src); err != nil {
				d.logger.Warn().Str("sender", e.Sender).Msg("Join rejection send failed.")
			}
			d.sink.Recordf(audit.EventJoinFail, "%s could not register: %s", e.Sender, cErr.Message)
			return
		}
	}

	created := false
	if _, ok := d.dir.FindActiveGroup(e.Group); !ok {
		if cErr := d.dir.CreateOrReactivateGroup(e.Group, e.Sender); cErr != nil {
			d.notifySender(e.Sender, cErr)
			d.sink.Recordf(audit.EventJoinFail, "%s could not create group %s: %s", e.Sender, e.Group, cErr.Message)
			return
		}
		created = true
	}

	if cErr := d.dir.AddMember(e.Group, e.Sender); cErr != nil {
		d.notifySender(e.Sender, cErr)
		d.logger.Warn().Str("sender", e.Sender).Str("group", e.Group).Msg("Join failed.")
		d.sink.Recordf(audit.EventJoinFail, "%s could not join group %s: %s", e.Sender, e.Group, cErr.Message)
		return
	}

	// Announce the new member to everyone already in the group.
	d.broadcastToGroup(e.Group, e, e.Sender)

	// Confirm to the joiner, carrying the group's color and CREATED/JOINED.
	group, _ := d.dir.FindActiveGroup(e.Group)
	confirm := message.New(message.KindJoin, e.Sender, "", e.Group, message.FormatJoinStatus(created, group.Color))
	d.sendToUser(e.Sender, confirm)

	if created {
		d.logger.Info().Str("sender", e.Sender).Str("group", e.Group).Msg("User created and joined group as admin.")
		d.sink.Recordf(audit.EventJoin, "%s created and joined group %s", e.Sender, e.Group)
	} else {
		d.logger.Info().Str("sender", e.Sender).Str("group", e.Group).Msg("User joined group.")
		d.sink.Recordf(audit.EventJoin, "%s joined group %s", e.Sender, e.Group)
	}
}

func (d *Dispatcher) handleLeave(e message.Envelope) {
	if cErr := d.dir.RemoveMember(e.Group, e.Sender); cErr != nil {
		d.notifySender(e.Sender, cErr)
		d.logger.Warn().Str("sender", e.Sender).Str("group", e.Group).Msg("Leave failed.")
		return
	}

	d.broadcastToGroup(e.Group, e, e.Sender)
	d.logger.Info().Str("sender", e.Sender).Str("group", e.Group).Msg("User left group.")
	d.sink.Recordf(audit.EventLeave, "%s left group %s", e.Sender, e.Group)
}

func (d *Dispatcher) handlePublic(e message.Envelope) {
	if _, ok := d.dir.FindActiveGroup(e.Group); !ok {
		d.notifySender(e.Sender, errs.NewError(errs.ErrGroupNotFound, e.Group))
		return
	}

	d.broadcastToGroup(e.Group, e, e.Sender)
	d.sink.Recordf(audit.EventPublic, "[%s] %s: %s", e.Group, e.Sender, e.Content)
}

func (d *Dispatcher) handlePrivate(e message.Envelope) {
	if _, ok := d.dir.FindActiveUser(e.Recipient); !ok {
		d.notifySender(e.Sender, errs.NewError(errs.ErrUserNotFound, e.Recipient))
		d.logger.Warn().Str("sender", e.Sender).Str("recipient", e.Recipient).Msg("Private message recipient not found.")
		return
	}

	d.sendToUser(e.Recipient, e)
	d.sink.Recordf(audit.EventPrivate, "%s -> %s: %s", e.Sender, e.Recipient, e.Content)
}

func (d *Dispatcher) handleChangeColor(e message.Envelope) {
	if _, ok := d.dir.FindActiveGroup(e.Group); !ok {
		d.notifySender(e.Sender, errs.NewError(errs.ErrGroupNotFound, e.Group))
		return
	}

	if !d.dir.IsAdmin(e.Group, e.Sender) {
		d.notifySender(e.Sender, errs.NewError(errs.ErrUnauthorized))
		d.sink.Recordf(audit.EventChangeColorDenied, "%s (non-admin) tried to change the color of %s", e.Sender, e.Group)
		return
	}

	if !message.ValidColorName(e.Content) {
		d.notifySender(e.Sender, errs.NewError(errs.ErrInvalidParams))
		return
	}

	if cErr := d.dir.SetGroupColor(e.Group, e.Content); cErr != nil {
		d.notifySender(e.Sender, cErr)
		return
	}

	// The color change is relayed to every member, the sender included.
	d.broadcastToGroup(e.Group, e, "")
	d.logger.Info().Str("sender", e.Sender).Str("group", e.Group).Str("color", e.Content).Msg("Group color changed.")
	d.sink.Recordf(audit.EventChangeColor, "%s (admin) changed the color of group %s to %s", e.Sender, e.Group, e.Content)
}

func (d *Dispatcher) handleCreateGroup(e message.Envelope) {
	groupName := e.Content
	if cErr := d.dir.CreateOrReactivateGroup(groupName, e.Sender); cErr != nil {
		d.notifySender(e.Sender, cErr)
		return
	}

	confirm := message.New(message.KindCreateGroup, message.ServerSender, e.Sender, "", groupName)
	d.sendToUser(e.Sender, confirm)
	d.logger.Info().Str("sender", e.Sender).Str("group", groupName).Msg("Group created by explicit request.")
	d.sink.Recordf(audit.EventCreateGroup, "group %s created by %s (admin)", groupName, e.Sender)
}

func (d *Dispatcher) handleMergeGroups(e message.Envelope) {
	target, source, pErr := message.ParseMergeSpec(e.Content)
	if pErr != nil {
		d.notifySender(e.Sender, pErr)
		return
	}

	if !d.dir.IsAdmin(target, e.Sender) {
		// Distinguish a missing group from a missing privilege for the notice.
		if _, ok := d.dir.FindActiveGroup(target); !ok {
			d.notifySender(e.Sender, errs.NewError(errs.ErrGroupNotFound, target))
			return
		}
		d.notifySender(e.Sender, errs.NewError(errs.ErrUnauthorized))
		d.sink.Recordf(audit.EventMergeGroupsDenied, "%s (non-admin) tried to merge %s and %s", e.Sender, target, source)
		return
	}

	former, cErr := d.dir.MergeGroups(target, source)
	if cErr != nil {
		d.notifySender(e.Sender, cErr)
		return
	}

	notice := message.New(message.KindPublic, message.ServerSender, "", target,
		fmt.Sprintf("Groups %s and %s have been merged", target, source))
	d.broadcastToGroup(target, notice, "")

	// Former members of the absorbed group re-confirm into the surviving one,
	// picking up its name and color on their side.
	merged, _ := d.dir.FindActiveGroup(target)
	for _, member := range former {
		rejoin := message.New(message.KindJoin, member, "", target, message.FormatJoinStatus(false, merged.Color))
		d.sendToUser(member, rejoin)
	}

	d.logger.Info().Str("target", target).Str("source", source).Str("sender", e.Sender).Msg("Groups merged.")
	d.sink.Recordf(audit.EventMergeGroups, "groups %s and %s merged by %s (admin)", target, source, e.Sender)
}

func (d *Dispatcher) handleKickUser(e message.Envelope) {
	target := e.Content

	if _, ok := d.dir.FindActiveGroup(e.Group); !ok {
		d.notifySender(e.Sender, errs.NewError(errs.ErrGroupNotFound, e.Group))
		return
	}

	if !d.dir.IsAdmin(e.Group, e.Sender) {
		d.notifySender(e.Sender, errs.NewError(errs.ErrUnauthorized))
		d.sink.Recordf(audit.EventKickDenied, "%s (non-admin) tried to kick %s from %s", e.Sender, target, e.Group)
		return
	}

	if target == e.Sender {
		d.notifySender(e.Sender, errs.NewError(errs.ErrSelfAction))
		return
	}

	if cErr := d.dir.Kick(e.Group, target); cErr != nil {
		d.notifySender(e.Sender, cErr)
		return
	}

	// The kicked user gets a leave-styled notice and clears its local state.
	kicked := message.New(message.KindLeave, message.ServerSender, target, e.Group,
		fmt.Sprintf("You have been kicked by %s", e.Sender))
	d.sendToUser(target, kicked)

	notice := message.New(message.KindPublic, message.ServerSender, "", e.Group,
		fmt.Sprintf("%s was kicked from the group by %s", target, e.Sender))
	d.broadcastToGroup(e.Group, notice, "")

	d.logger.Info().Str("sender", e.Sender).Str("target", target).Str("group", e.Group).Msg("User kicked.")
	d.sink.Recordf(audit.EventKickUser, "%s (admin) kicked %s from group %s", e.Sender, target, e.Group)
}

func (d *Dispatcher) handlePromoteAdmin(e message.Envelope) {
	target := e.Content

	if _, ok := d.dir.FindActiveGroup(e.Group); !ok {
		d.notifySender(e.Sender, errs.NewError(errs.ErrGroupNotFound, e.Group))
		return
	}

	if !d.dir.IsAdmin(e.Group, e.Sender) {
		d.notifySender(e.Sender, errs.NewError(errs.ErrUnauthorized))
		d.sink.Recordf(audit.EventPromoteDenied, "%s (non-admin) tried to promote %s in %s", e.Sender, target, e.Group)
		return
	}

	if _, ok := d.dir.FindActiveUser(target); !ok {
		d.notifySender(e.Sender, errs.NewError(errs.ErrUserNotFound, target))
		return
	}

	if cErr := d.dir.Promote(e.Group, target); cErr != nil {
		d.notifySender(e.Sender, cErr)
		return
	}

	notice := message.New(message.KindPublic, message.ServerSender, target, "",
		fmt.Sprintf("You are now an administrator of group %s", e.Group))
	d.sendToUser(target, notice)

	groupNotice := message.New(message.KindPublic, message.ServerSender, "", e.Group,
		fmt.Sprintf("%s is now an administrator of the group", target))
	d.broadcastToGroup(e.Group, groupNotice, "")

	d.logger.Info().Str("sender", e.Sender).Str("target", target).Str("group", e.Group).Msg("User promoted to admin.")
	d.sink.Recordf(audit.EventPromoteAdmin, "%s (admin) promoted %s in group %s", e.Sender, target, e.Group)
}

func (d *Dispatcher) handleDemoteAdmin(e message.Envelope) {
	target := e.Content

	if _, ok := d.dir.FindActiveGroup(e.Group); !ok {
		d.notifySender(e.Sender, errs.NewError(errs.ErrGroupNotFound, e.Group))
		return
	}

	if !d.dir.IsAdmin(e.Group, e.Sender) {
		d.notifySender(e.Sender, errs.NewError(errs.ErrUnauthorized))
		d.sink.Recordf(audit.EventDemoteDenied, "%s (non-admin) tried to demote %s in %s", e.Sender, target, e.Group)
		return
	}

	// Self-demotion is allowed; the last-admin rule below is what stops a
	// group from losing its only administrator.
	if _, ok := d.dir.FindActiveUser(target); !ok {
		d.notifySender(e.Sender, errs.NewError(errs.ErrUserNotFound, target))
		return
	}

	if cErr := d.dir.Demote(e.Group, target); cErr != nil {
		d.notifySender(e.Sender, cErr)
		return
	}

	notice := message.New(message.KindPublic, message.ServerSender, target, "",
		fmt.Sprintf("You are no longer an administrator of group %s", e.Group))
	d.sendToUser(target, notice)

	groupNotice := message.New(message.KindPublic, message.ServerSender, "", e.Group,
		fmt.Sprintf("%s is no longer an administrator of the group", target))
	d.broadcastToGroup(e.Group, groupNotice, "")

	d.logger.Info().Str("sender", e.Sender).Str("target", target).Str("group", e.Group).Msg("Admin demoted.")
	d.sink.Recordf(audit.EventDemoteAdmin, "%s (admin) demoted %s in group %s", e.Sender, target, e.Group)
}

func (d *Dispatcher) handleDisconnect(e message.Envelope) {
	if cErr := d.dir.DeactivateUser(e.Sender); cErr != nil {
		d.logger.Warn().Str("sender", e.Sender).Msg("Disconnect for unknown user.")
		return
	}
	d.logger.Info().Str("sender", e.Sender).Msg("User disconnected.")
	d.sink.Recordf(audit.EventDisconnect, "%s disconnected", e.Sender)
}

func (d *Dispatcher) handleListUsers(e message.Envelope) {
	if _, ok := d.dir.FindActiveUser(e.Sender); !ok {
		d.logger.Warn().Str("sender", e.Sender).Msg("List users request from unknown user.")
		return
	}

	entries := d.dir.UserSummaries()
	response := message.Reply(e, message.KindListUsersResponse, e.Sender, "", message.EncodeUserList(entries))
	d.sendToUser(e.Sender, response)
	d.logger.Info().Str("sender", e.Sender).Int("active_users", len(entries)).Msg("User list served.")
}

func (d *Dispatcher) handleListGroups(e message.Envelope) {
	if _, ok := d.dir.FindActiveUser(e.Sender); !ok {
		d.logger.Warn().Str("sender", e.Sender).Msg("List groups request from unknown user.")
		return
	}

	entries := d.dir.GroupSummaries()
	response := message.Reply(e, message.KindListGroupsResponse, e.Sender, "", message.EncodeGroupList(entries))
	d.sendToUser(e.Sender, response)
	d.logger.Info().Str("sender", e.Sender).Int("active_groups", len(entries)).Msg("Group list served.")
}
