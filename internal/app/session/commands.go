package session

import (
	"fmt"
	"strings"

	"github.com/GuahBy/projetISY/internal/app/message"
)

const helpText = `Available commands:
  /join <group>      join a group, creating it if needed
  /leave             leave the current group
  /msg <user> <text> send a private message
  /create <group>    create a group without joining it
  /merge <group>     absorb a group into the current one (admin)
  /color <name>      change the current group's color (admin)
  /kick <user>       remove a user from the current group (admin)
  /promote <user>    grant admin rights in the current group (admin)
  /demote <user>     revoke admin rights in the current group (admin)
  /users             list connected users
  /groups            list active groups
  /clear             clear the screen
  /quit              disconnect and exit
Anything else is sent to the current group.`

// handleLine interprets one input line. It returns true when the session
// should end.
func (c *Client) handleLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, "/") {
		c.sendPublic(line)
		return false
	}

	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch command {
	case "/help":
		fmt.Fprintln(c.out, helpText)
	case "/quit":
		return true
	case "/clear":
		fmt.Fprint(c.out, "\033[2J\033[H")
	case "/join":
		c.join(rest)
	case "/leave":
		c.leave()
	case "/msg":
		target, text, _ := strings.Cut(rest, " ")
		c.sendPrivate(target, strings.TrimSpace(text))
	case "/create":
		c.createGroup(rest)
	case "/merge":
		c.merge(rest)
	case "/color":
		c.changeColor(rest)
	case "/kick":
		c.adminAction(message.KindKickUser, rest)
	case "/promote":
		c.adminAction(message.KindPromoteAdmin, rest)
	case "/demote":
		c.adminAction(message.KindDemoteAdmin, rest)
	case "/users":
		c.listUsers()
	case "/groups":
		c.listGroups()
	default:
		c.notice(fmt.Sprintf("Unknown command %s. Type /help.", command))
	}
	return false
}

func (c *Client) sendPublic(text string) {
	group, _ := c.state.Group()
	if group == "" {
		c.notice("You are not in a group. Use /join <group> first.")
		return
	}
	e := message.New(message.KindPublic, c.state.Username(), "", group, text)
	if cErr := c.send(e); cErr != nil {
		c.notice("Message could not be sent.")
	}
}

func (c *Client) sendPrivate(target, text string) {
	if target == "" || text == "" {
		c.notice("Usage: /msg <user> <text>")
		return
	}
	e := message.New(message.KindPrivate, c.state.Username(), target, "", text)
	if cErr := c.send(e); cErr != nil {
		c.notice("Message could not be sent.")
	}
}

// join switches groups. The current group is left first; membership in the
// new one is confirmed asynchronously by the server.
func (c *Client) join(groupName string) {
	if groupName == "" {
		c.notice("Usage: /join <group>")
		return
	}

	current, _ := c.state.Group()
	if current == groupName {
		c.notice(fmt.Sprintf("You are already in group %s.", groupName))
		return
	}
	if current != "" {
		leave := message.New(message.KindLeave, c.state.Username(), "", current, "")
		if cErr := c.send(leave); cErr != nil {
			c.notice("Could not leave the current group.")
			return
		}
		c.state.ClearGroup()
	}

	e := message.New(message.KindJoin, c.state.Username(), "", groupName, "")
	if cErr := c.send(e); cErr != nil {
		c.notice("Join request could not be sent.")
	}
}

func (c *Client) leave() {
	group, _ := c.state.Group()
	if group == "" {
		c.notice("You are not in a group.")
		return
	}
	e := message.New(message.KindLeave, c.state.Username(), "", group, "")
	if cErr := c.send(e); cErr != nil {
		c.notice("Leave request could not be sent.")
		return
	}
	c.state.ClearGroup()
	c.notice(fmt.Sprintf("You left group %s.", group))
}

func (c *Client) createGroup(groupName string) {
	if groupName == "" {
		c.notice("Usage: /create <group>")
		return
	}
	e := message.New(message.KindCreateGroup, c.state.Username(), "", "", groupName)
	if cErr := c.send(e); cErr != nil {
		c.notice("Create request could not be sent.")
	}
}

func (c *Client) merge(source string) {
	if source == "" {
		c.notice("Usage: /merge <group>")
		return
	}
	target, _ := c.state.Group()
	if target == "" {
		c.notice("Join the surviving group before merging.")
		return
	}
	e := message.New(message.KindMergeGroups, c.state.Username(), "", target, message.FormatMergeSpec(target, source))
	if cErr := c.send(e); cErr != nil {
		c.notice("Merge request could not be sent.")
	}
}

func (c *Client) changeColor(colorName string) {
	if !message.ValidColorName(colorName) {
		c.notice(fmt.Sprintf("Unknown color. Available: %s.", strings.Join(message.ColorNames, ", ")))
		return
	}
	group, _ := c.state.Group()
	if group == "" {
		c.notice("You are not in a group.")
		return
	}
	e := message.New(message.KindChangeColor, c.state.Username(), "", group, colorName)
	if cErr := c.send(e); cErr != nil {
		c.notice("Color request could not be sent.")
	}
}

// adminAction covers kick, promote, and demote: all carry the target user in
// the content field and apply to the current group.
func (c *Client) adminAction(kind message.Kind, target string) {
	if target == "" {
		c.notice("Missing target user.")
		return
	}
	group, _ := c.state.Group()
	if group == "" {
		c.notice("You are not in a group.")
		return
	}
	e := message.New(kind, c.state.Username(), "", group, target)
	if cErr := c.send(e); cErr != nil {
		c.notice("Request could not be sent.")
	}
}

func (c *Client) listUsers() {
	req := message.New(message.KindListUsers, c.state.Username(), "", "", "")
	response, ok, cErr := c.request(req, ListTimeout)
	if cErr != nil {
		c.notice("List request could not be sent.")
		return
	}
	if !ok {
		c.notice("No response from the server. Try again.")
		return
	}

	entries := message.DecodeUserList(response.Content)
	fmt.Fprintf(c.out, "Connected users (%d):\n", len(entries))
	for _, entry := range entries {
		if entry.Group == "" {
			fmt.Fprintf(c.out, "  %s (no group)\n", entry.Username)
			continue
		}
		fmt.Fprintf(c.out, "  %s (group %s)\n", entry.Username, entry.Group)
	}
}

func (c *Client) listGroups() {
	req := message.New(message.KindListGroups, c.state.Username(), "", "", "")
	response, ok, cErr := c.request(req, ListTimeout)
	if cErr != nil {
		c.notice("List request could not be sent.")
		return
	}
	if !ok {
		c.notice("No response from the server. Try again.")
		return
	}

	entries := message.DecodeGroupList(response.Content)
	fmt.Fprintf(c.out, "Active groups (%d):\n", len(entries))
	for _, entry := range entries {
		fmt.Fprintf(c.out, "  %s (%d members, %d admins)\n", entry.Name, entry.MemberCount, entry.AdminCount)
	}
}
