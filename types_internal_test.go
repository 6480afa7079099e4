package authgate

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefLoggerRendersKeyValuePairs(t *testing.T) {
	var buf bytes.Buffer
	logger := defLogger{out: &buf}

	logger.Warn("strategy skipped, circuit open", "strategy", "bearer-token", "correlation_id", "01ABC")

	line := buf.String()
	assert.Equal(t, "[WRN] AUTHGATE strategy skipped, circuit open strategy=bearer-token correlation_id=01ABC\n", line)
	assert.NotContains(t, line, "%!")
}

func TestDefLoggerHandlesNoArgsAndOddArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := defLogger{out: &buf}

	logger.Info("plain message")
	assert.Equal(t, "[INF] AUTHGATE plain message\n", buf.String())

	buf.Reset()
	logger.Error("dangling key", "user_id")
	assert.Equal(t, "[ERR] AUTHGATE dangling key user_id=(MISSING)\n", buf.String())
}
