/*
Package message defines the wire envelope exchanged between clients and the server.

This file defines the Envelope struct and its JSON codec. The envelope is the only
unit of communication crossing the transport boundary: one JSON-encoded envelope
per UDP datagram, carrying a kind tag, the routing fields, and free-text content.
*/
package message

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GuahBy/projetISY/internal/pkg/errs"
)

// Bounded field sizes, shared by every interoperating implementation.
const (
	MaxUsername  = 32
	MaxGroupName = 32
	MaxContent   = 256
)

// ServerSender is the reserved sender identity used by the server for
// acknowledgements, notices, and error messages. Clients treat a LEAVE
// envelope from this sender as a kick notice.
const ServerSender = "Serveur"

// Kind tags the envelope with its protocol message type.
type Kind string

// Protocol message kinds.
const (
	KindConnect            Kind = "CONNECT"
	KindConnectAck         Kind = "CONNECT_ACK"
	KindPublic             Kind = "PUBLIC"
	KindPrivate            Kind = "PRIVATE"
	KindJoin               Kind = "JOIN"
	KindLeave              Kind = "LEAVE"
	KindListUsers          Kind = "LIST_USERS"
	KindListGroups         Kind = "LIST_GROUPS"
	KindCreateGroup        Kind = "CREATE_GROUP"
	KindMergeGroups        Kind = "MERGE_GROUPS"
	KindChangeColor        Kind = "CHANGE_COLOR"
	KindDisconnect         Kind = "DISCONNECT"
	KindKickUser           Kind = "KICK_USER"
	KindPromoteAdmin       Kind = "PROMOTE_ADMIN"
	KindDemoteAdmin        Kind = "DEMOTE_ADMIN"
	KindListUsersResponse  Kind = "LIST_USERS_RESPONSE"
	KindListGroupsResponse Kind = "LIST_GROUPS_RESPONSE"
)

// Envelope is the typed request/response unit exchanged between client and server.
type Envelope struct {
	// ID identifies the envelope; responses answering a specific request
	// (CONNECT_ACK, LIST_*_RESPONSE) echo the request's ID so the client
	// can correlate them with a pending wait.
	ID string `json:"id"`

	Kind      Kind      `json:"kind"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient,omitempty"`
	Group     string    `json:"group,omitempty"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New builds an envelope with a fresh ID and the current send time.
func New(kind Kind, sender, recipient, group, content string) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Kind:      kind,
		Sender:    sender,
		Recipient: recipient,
		Group:     group,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// Reply builds a server response envelope correlated to the given request:
// it reuses the request's ID so the requester can match it to its wait.
func Reply(req Envelope, kind Kind, recipient, group, content string) Envelope {
	e := New(kind, ServerSender, recipient, group, content)
	e.ID = req.ID
	return e
}

// Validate checks the envelope's bounded fields against the wire limits.
func (e Envelope) Validate() *errs.CustomError {
	if e.Kind == "" || e.Sender == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if len(e.Sender) > MaxUsername {
		return errs.NewError(errs.ErrFieldTooLong, "sender")
	}
	if len(e.Recipient) > MaxUsername {
		return errs.NewError(errs.ErrFieldTooLong, "recipient")
	}
	if len(e.Group) > MaxGroupName {
		return errs.NewError(errs.ErrFieldTooLong, "group")
	}
	if len(e.Content) > MaxContent {
		return errs.NewError(errs.ErrFieldTooLong, "content")
	}
	return nil
}

// Encode serializes the envelope into its wire form.
func (e Envelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return data, nil
}

// Decode parses a wire datagram into an envelope and validates its bounds.
func Decode(data []byte) (Envelope, *errs.CustomError) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, errs.NewError(errs.ErrInvalidEnvelope)
	}
	if vErr := e.Validate(); vErr != nil {
		return Envelope{}, vErr
	}
	return e, nil
}

// Join confirmation statuses carried in the content of a JOIN acknowledgement.
const (
	JoinStatusCreated = "CREATED"
	JoinStatusJoined  = "JOINED"
)

// FormatJoinStatus encodes a join confirmation content field, "STATUS:colorName".
func FormatJoinStatus(created bool, colorName string) string {
	status := JoinStatusJoined
	if created {
		status = JoinStatusCreated
	}
	return status + ":" + colorName
}

// ParseJoinStatus decodes a join confirmation content field. A missing color
// falls back to the default group color.
func ParseJoinStatus(content string) (status, colorName string) {
	status, colorName, ok := strings.Cut(content, ":")
	if !ok || colorName == "" {
		colorName = DefaultColorName
	}
	return status, colorName
}

// FormatMergeSpec encodes a merge request content field, "group1:group2".
func FormatMergeSpec(target, source string) string {
	return target + ":" + source
}

// ParseMergeSpec decodes a merge request content field.
func ParseMergeSpec(content string) (target, source string, err *errs.CustomError) {
	target, source, ok := strings.Cut(content, ":")
	if !ok || target == "" || source == "" {
		return "", "", errs.NewError(errs.ErrInvalidParams)
	}
	return target, source, nil
}
