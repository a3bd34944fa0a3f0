package message

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuahBy/projetISY/internal/pkg/errs"
)

func TestNewAssignsUniqueIDs(t *testing.T) {
	a := New(KindPublic, "alice", "", "devs", "hi")
	b := New(KindPublic, "alice", "", "devs", "hi")
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestReplyEchoesRequestID(t *testing.T) {
	req := New(KindConnect, "alice", "", "", "")
	ack := Reply(req, KindConnectAck, "alice", "", "OK")

	assert.Equal(t, req.ID, ack.ID)
	assert.Equal(t, ServerSender, ack.Sender)
	assert.Equal(t, KindConnectAck, ack.Kind)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e := New(KindPrivate, "alice", "bob", "", "hello")

	data, err := e.Encode()
	require.NoError(t, err)

	decoded, cErr := Decode(data)
	require.Nil(t, cErr)
	assert.Equal(t, e.ID, decoded.ID)
	assert.Equal(t, e.Kind, decoded.Kind)
	assert.Equal(t, e.Content, decoded.Content)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, cErr := Decode([]byte("{not json"))
	require.NotNil(t, cErr)
	assert.Equal(t, errs.ErrInvalidEnvelope, cErr.Code)
}

func TestValidateBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Envelope)
		code   int
	}{
		{"missing sender", func(e *Envelope) { e.Sender = "" }, errs.ErrInvalidParams},
		{"missing kind", func(e *Envelope) { e.Kind = "" }, errs.ErrInvalidParams},
		{"sender too long", func(e *Envelope) { e.Sender = strings.Repeat("a", MaxUsername+1) }, errs.ErrFieldTooLong},
		{"group too long", func(e *Envelope) { e.Group = strings.Repeat("g", MaxGroupName+1) }, errs.ErrFieldTooLong},
		{"content too long", func(e *Envelope) { e.Content = strings.Repeat("x", MaxContent+1) }, errs.ErrFieldTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(KindPublic, "alice", "", "devs", "hi")
			tt.mutate(&e)
			cErr := e.Validate()
			require.NotNil(t, cErr)
			assert.Equal(t, tt.code, cErr.Code)
		})
	}
}

func TestValidateAcceptsBoundaryLengths(t *testing.T) {
	e := New(KindPublic, strings.Repeat("a", MaxUsername), "", strings.Repeat("g", MaxGroupName), strings.Repeat("x", MaxContent))
	assert.Nil(t, e.Validate())
}

func TestJoinStatusRoundTrip(t *testing.T) {
	content := FormatJoinStatus(true, "cyan")
	assert.Equal(t, "CREATED:cyan", content)

	status, color := ParseJoinStatus(content)
	assert.Equal(t, JoinStatusCreated, status)
	assert.Equal(t, "cyan", color)

	status, color = ParseJoinStatus("JOINED")
	assert.Equal(t, JoinStatusJoined, status)
	assert.Equal(t, DefaultColorName, color)
}

func TestMergeSpec(t *testing.T) {
	target, source, cErr := ParseMergeSpec(FormatMergeSpec("devs", "ops"))
	require.Nil(t, cErr)
	assert.Equal(t, "devs", target)
	assert.Equal(t, "ops", source)

	for _, bad := range []string{"", "devs", "devs:", ":ops"} {
		_, _, cErr := ParseMergeSpec(bad)
		require.NotNil(t, cErr, "merge spec %q should be rejected", bad)
		assert.Equal(t, errs.ErrInvalidParams, cErr.Code)
	}
}

func TestColorNames(t *testing.T) {
	for _, name := range ColorNames {
		assert.True(t, ValidColorName(name))
		assert.NotEmpty(t, ColorCode(name))
	}
	assert.False(t, ValidColorName("mauve"))

	// Unknown names fall back to the default code rather than breaking the prompt.
	assert.Equal(t, ColorCode(DefaultColorName), ColorCode("mauve"))
}
