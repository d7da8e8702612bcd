package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/swapstation/infra/console"
)

var entries = []console.Entry{
	{Time: time.Date(2025, 1, 1, 8, 0, 5, 0, time.UTC), Clock: "08:00:05", Message: "Battery swap completed, AGV at 100%"},
	{Time: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC), Clock: "08:00:00", Message: "Battery swap initiated"},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Chronological(entries)))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "time,clock,message", lines[0])
	assert.Equal(t, "2025-01-01T08:00:00Z,08:00:00,Battery swap initiated", lines[1])
	assert.Equal(t, `2025-01-01T08:00:05Z,08:00:05,"Battery swap completed, AGV at 100%"`, lines[2])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, entries))
	var got []console.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Battery swap completed, AGV at 100%", got[0].Message)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
