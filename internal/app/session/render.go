package session

import (
	"fmt"

	"github.com/GuahBy/projetISY/internal/app/message"
)

const timeLayout = "15:04:05"

// notice prints a local informational line, outside the message flow.
func (c *Client) notice(text string) {
	fmt.Fprintf(c.out, "-- %s\n", text)
}

// render prints an incoming envelope and applies its side effects on the
// session state (group confirmations, kicks, color changes).
func (c *Client) render(e message.Envelope) {
	stamp := e.Timestamp.Format(timeLayout)

	switch e.Kind {
	case message.KindPublic:
		c.renderPublic(e, stamp)
	case message.KindPrivate:
		fmt.Fprintf(c.out, "[%s] (private) %s: %s\n", stamp, e.Sender, e.Content)
	case message.KindJoin:
		c.renderJoin(e, stamp)
	case message.KindLeave:
		c.renderLeave(e, stamp)
	case message.KindChangeColor:
		if c.state.AdoptColor(e.Group, e.Content) {
			fmt.Fprintf(c.out, "[%s] The group color is now %s.\n", stamp, e.Content)
		}
	case message.KindCreateGroup:
		fmt.Fprintf(c.out, "[%s] Group %s created. Use /join %s to enter it.\n", stamp, e.Content, e.Content)
	case message.KindListUsersResponse, message.KindListGroupsResponse:
		// A late listing whose wait already timed out. Drop it quietly.
	default:
		c.logger.Debug().Str("kind", string(e.Kind)).Msg("Ignoring unexpected envelope.")
	}
}

// renderPublic colors group traffic with the group's color. Server notices
// arrive without a group and are printed as plain notices.
func (c *Client) renderPublic(e message.Envelope, stamp string) {
	if e.Sender == message.ServerSender && e.Group == "" {
		fmt.Fprintf(c.out, "[%s] %s: %s\n", stamp, message.ServerSender, e.Content)
		return
	}

	group, color := c.state.Group()
	if e.Group == group && group != "" {
		fmt.Fprintf(c.out, "%s[%s] %s: %s%s\n", message.ColorCode(color), stamp, e.Sender, e.Content, message.ColorReset)
		return
	}
	fmt.Fprintf(c.out, "[%s] (%s) %s: %s\n", stamp, e.Group, e.Sender, e.Content)
}

// renderJoin handles both the confirmation addressed to this client and the
// announcement that someone else joined the current group.
func (c *Client) renderJoin(e message.Envelope, stamp string) {
	if e.Sender == c.state.Username() {
		status, color := message.ParseJoinStatus(e.Content)
		c.state.SetGroup(e.Group, color)
		if status == message.JoinStatusCreated {
			fmt.Fprintf(c.out, "[%s] You created and joined group %s.\n", stamp, e.Group)
			return
		}
		fmt.Fprintf(c.out, "[%s] You joined group %s.\n", stamp, e.Group)
		return
	}
	fmt.Fprintf(c.out, "[%s] %s joined group %s.\n", stamp, e.Sender, e.Group)
}

// renderLeave handles a kick notice addressed to this client as well as
// ordinary departure announcements.
func (c *Client) renderLeave(e message.Envelope, stamp string) {
	if e.Sender == message.ServerSender && e.Recipient == c.state.Username() {
		c.state.ClearGroup()
		fmt.Fprintf(c.out, "[%s] %s: %s\n", stamp, message.ServerSender, e.Content)
		return
	}
	fmt.Fprintf(c.out, "[%s] %s left group %s.\n", stamp, e.Sender, e.Group)
}
