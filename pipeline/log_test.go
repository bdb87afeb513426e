package pipeline

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/talkback/logger"
)

func TestLog_WritesEveryMessage(t *testing.T) {
	var buf bytes.Buffer
	src := Log[int](newTestLogger(&buf, "debug"), "numbers")(FromValues(1, 2))
	got, err := Collect(t.Context(), src)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)

	var (
		messages []string
		channels = map[string]bool{}
	)
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, "numbers", entry[logger.FieldOperator])
		channels[entry[logger.FieldChannel].(string)] = true
		messages = append(messages, entry["message"].(string))
	}

	assert.Equal(t, []string{
		"start", "talkback", "data", "talkback", "data", "talkback", "end",
	}, messages)
	assert.Len(t, channels, 1)
}

func TestLog_NewChannelIDPerInvocation(t *testing.T) {
	var buf bytes.Buffer
	src := Log[int](newTestLogger(&buf, "debug"), "ids")(Empty[int]())
	Observe(src, func(int) {})
	Observe(src, func(int) {})

	channels := map[string]bool{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		channels[entry[logger.FieldChannel].(string)] = true
	}
	assert.Len(t, channels, 2)
}

func TestLog_DisabledAtInfo(t *testing.T) {
	var buf bytes.Buffer
	src := Log[int](newTestLogger(&buf, "info"), "quiet")(FromValues(1))
	got, err := Collect(t.Context(), src)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
	assert.Empty(t, buf.String())
}

func TestLog_EndWithError(t *testing.T) {
	var buf bytes.Buffer
	Observe(Log[int](newTestLogger(&buf, "debug"), "failing")(Fail[int](errBoom)), func(int) {})
	assert.Contains(t, buf.String(), `"error":"boom"`)
}
