package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	sink, err := NewSink(path)
	require.NoError(t, err)

	sink.Record(EventConnect, "alice connected from 127.0.0.1:9001")
	sink.Recordf(EventJoin, "%s joined group %s", "alice", "devs")
	require.NoError(t, sink.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var events []map[string]any
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		events = append(events, entry)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, events, 2)
	assert.Equal(t, EventConnect, events[0]["event"])
	assert.Equal(t, EventJoin, events[1]["event"])
	assert.Equal(t, "alice joined group devs", events[1]["details"])
	assert.NotEmpty(t, events[0]["time"])
}

func TestNilSinkIsSafe(t *testing.T) {
	var sink *Sink
	sink.Record(EventServer, "ignored")
	sink.Recordf(EventServer, "also %s", "ignored")
	assert.NoError(t, sink.Close())
}
