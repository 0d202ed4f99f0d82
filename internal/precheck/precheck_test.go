package precheck

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/internal/errdefs"
	"strata/internal/run"
)

func TestUEFIDetection(t *testing.T) {
	dir := t.TempDir()

	err := uefiAt(filepath.Join(dir, "efivars"))
	require.Error(t, err)
	assert.Equal(t, errdefs.KindPrecondition, errdefs.KindOf(err))
	assert.Contains(t, err.Error(), "UEFI")

	assert.NoError(t, uefiAt(dir))
}

func TestToolsAllPresent(t *testing.T) {
	assert.NoError(t, Tools(&run.FakeRunner{}))
}

func TestToolsReportsMissing(t *testing.T) {
	runner := &run.FakeRunner{Missing: []string{"pacstrap"}}

	err := Tools(runner)
	require.Error(t, err)
	assert.Equal(t, errdefs.KindPrecondition, errdefs.KindOf(err))
	assert.Contains(t, err.Error(), "pacstrap")
}
