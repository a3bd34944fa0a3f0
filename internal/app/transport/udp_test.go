package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuahBy/projetISY/internal/app/message"
	"github.com/GuahBy/projetISY/internal/pkg/logx"
)

func init() {
	logx.InitGlobalLogger(false)
}

func TestSendReceiveRoundTrip(t *testing.T) {
	server, err := Listen(0)
	require.NoError(t, err)
	defer server.Close()

	client, err := Listen(0)
	require.NoError(t, err)
	defer client.Close()

	serverAddr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: server.LocalAddr().Port}
	sent := message.New(message.KindPublic, "alice", "", "devs", "hello")
	require.Nil(t, client.Send(sent, serverAddr))

	received, src, ok, cErr := server.Receive(time.Second)
	require.Nil(t, cErr)
	require.True(t, ok)
	assert.Equal(t, sent.ID, received.ID)
	assert.Equal(t, sent.Content, received.Content)
	assert.Equal(t, client.LocalAddr().Port, src.Port)
}

func TestReceiveTimeoutIsNotAnError(t *testing.T) {
	conn, err := Listen(0)
	require.NoError(t, err)
	defer conn.Close()

	start := time.Now()
	_, _, ok, cErr := conn.Receive(50 * time.Millisecond)
	assert.Nil(t, cErr)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestReceiveReportsUndecodableDatagram(t *testing.T) {
	server, err := Listen(0)
	require.NoError(t, err)
	defer server.Close()

	serverAddr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: server.LocalAddr().Port}
	raw, err := net.DialUDP("udp", nil, serverAddr)
	require.NoError(t, err)
	defer raw.Close()

	_, err = raw.Write([]byte("{not json"))
	require.NoError(t, err)

	_, src, _, cErr := server.Receive(time.Second)
	require.NotNil(t, cErr)
	assert.NotNil(t, src)
}
