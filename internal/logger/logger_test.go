package logger

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, verboseOn bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseOn)
	SetColour(false)
	t.Cleanup(func() {
		SetVerbose(false)
		SetColour(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())
	SetVerbose(true)
	assert.True(t, IsVerbose())
}

func TestVerboseOnlyLevels(t *testing.T) {
	buf := capture(t, false)
	Debug("d")
	Info("i")
	Section("s")
	assert.Empty(t, buf.String())

	SetVerbose(true)
	Debug("test message %s", "arg")
	Info("info message %d", 42)
	Section("Query")
	assert.Equal(t, "[DEBUG] test message arg\n[INFO] info message 42\n\n=== Query ===\n", buf.String())
}

func TestWarnAndErrorAlwaysPrint(t *testing.T) {
	buf := capture(t, false)
	Warn("cache unavailable: %s", "locked")
	Error("boom")
	assert.Equal(t, "[WARN] cache unavailable: locked\n[ERROR] boom\n", buf.String())
}

func TestColourPrefixes(t *testing.T) {
	buf := capture(t, false)
	SetColour(true)
	Warn("w")
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\x1b["), "expected ANSI escape, got %q", out)
	assert.Contains(t, out, "[WARN]")
	assert.True(t, strings.HasSuffix(out, " w\n"))
}

func TestConcurrentAccess(t *testing.T) {
	capture(t, false)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			SetVerbose(n%2 == 0)
			Debug("concurrent %d", n)
			Warn("concurrent %d", n)
			IsVerbose()
		}(i)
	}
	wg.Wait()
}
