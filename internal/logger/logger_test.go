package logger

import (
	"bytes"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvLogger_Debug(t *testing.T) {
	tests := []struct {
		name      string
		envValue  string
		expectLog bool
	}{
		{
			name:      "logs when DTUI_DEBUG is set",
			envValue:  "1",
			expectLog: true,
		},
		{
			name:      "logs when DTUI_DEBUG is any value",
			envValue:  "true",
			expectLog: true,
		},
		{
			name:      "does not log when DTUI_DEBUG is empty",
			envValue:  "",
			expectLog: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log.SetOutput(&buf)
			defer log.SetOutput(os.Stderr)

			t.Setenv(DebugEnv, tt.envValue)

			l := NewEnvLogger("[test]")
			l.Debug("test message %s", "arg")

			if tt.expectLog {
				assert.Contains(t, buf.String(), "[test] test message arg")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestEnvLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := NewEnvLogger("[engine]")
	l.Info("started %d hosts", 2)
	l.Warn("stats stream for %s ended", "abc")
	l.Error("host %s unreachable", "local")

	out := buf.String()
	assert.Contains(t, out, "[engine] started 2 hosts")
	assert.Contains(t, out, "[engine] WARN: stats stream for abc ended")
	assert.Contains(t, out, "[engine] ERROR: host local unreachable")
}

func TestWithPrefix(t *testing.T) {
	buf := NewBufferLogger()
	l := WithPrefix(buf, "[host local]")

	l.Info("connected")
	l.Warn("slow")

	msgs := buf.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, LogMessage{Level: "info", Message: "[host local] connected"}, msgs[0])
	assert.Equal(t, LogMessage{Level: "warn", Message: "[host local] slow"}, msgs[1])
}

func TestNoop(t *testing.T) {
	l := Noop()
	assert.NotPanics(t, func() {
		l.Debug("x")
		l.Info("x")
		l.Warn("x")
		l.Error("x")
	})
}

func TestBufferLogger_Concurrent(t *testing.T) {
	buf := NewBufferLogger()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			buf.Info("msg %d", i)
		}(i)
	}
	wg.Wait()

	assert.Len(t, buf.Messages(), 20)
	assert.True(t, buf.HasLevel("info"))
	assert.False(t, buf.HasLevel("error"))

	buf.Clear()
	assert.Empty(t, buf.Messages())
}

func TestSetDefault(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	buf := NewBufferLogger()
	SetDefault(buf)
	Default().Error("boom")

	assert.True(t, buf.HasLevel("error"))
}
