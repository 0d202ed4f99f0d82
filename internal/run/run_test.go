package run

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/internal/logging"
)

func TestExecRunnerStatusReachesLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "install.log")
	logging.Setup(logPath, false)

	r := &ExecRunner{LogWriter: new(bytes.Buffer)}
	require.NoError(t, r.Run(context.Background(), "sh", "-c", "true"))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Command finished")
	assert.Contains(t, string(data), `"command":"sh"`)
	assert.Contains(t, string(data), `"exitCode":0`)
}

func TestExecRunnerRun(t *testing.T) {
	var buf bytes.Buffer
	r := &ExecRunner{LogWriter: &buf}

	require.NoError(t, r.Run(context.Background(), "sh", "-c", "echo streamed"))
	assert.Equal(t, "streamed\n", buf.String())
}

func TestExecRunnerRunFailureNamesCommand(t *testing.T) {
	r := &ExecRunner{LogWriter: new(bytes.Buffer)}

	err := r.Run(context.Background(), "sh", "-c", "exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sh -c exit 3")
}

func TestExecRunnerOutput(t *testing.T) {
	r := &ExecRunner{LogWriter: new(bytes.Buffer)}

	out, err := r.Output(context.Background(), "sh", "-c", "echo captured")
	require.NoError(t, err)
	assert.Equal(t, "captured\n", string(out))
}

func TestExecRunnerRunInput(t *testing.T) {
	var buf bytes.Buffer
	r := &ExecRunner{LogWriter: &buf}

	require.NoError(t, r.RunInput(context.Background(), "from stdin\n", "cat"))
	assert.Equal(t, "from stdin\n", buf.String())
}

func TestExecRunnerLookPath(t *testing.T) {
	r := NewExecRunner()

	path, err := r.LookPath("sh")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "/sh"))

	_, err = r.LookPath("definitely-not-a-real-tool")
	assert.Error(t, err)
}

func TestFakeRunnerScripting(t *testing.T) {
	r := &FakeRunner{
		Outputs: map[string]string{"lsblk": "out"},
		Missing: []string{"gone"},
	}

	out, err := r.Output(context.Background(), "lsblk", "-J")
	require.NoError(t, err)
	assert.Equal(t, "out", string(out))

	_, err = r.LookPath("gone")
	assert.Error(t, err)

	require.NoError(t, r.Run(context.Background(), "mount", "/dev/sda1", "/mnt"))
	assert.True(t, r.Ran("mount /dev/sda1"))
	assert.False(t, r.Ran("umount"))
}
