package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picklr-io/tfreconcile/internal/inventory"
	"github.com/picklr-io/tfreconcile/internal/state"
)

const runState = `{
    "version": 3,
    "serial": 4,
    "lineage": "5c2b1e0a",
    "modules": [
        {
            "path": ["root"],
            "outputs": {},
            "resources": {}
        },
        {
            "path": ["root", "child", "svc-a"],
            "outputs": {},
            "resources": {
                "svc-a.win-standard-m.0": {
                    "type": "vsphere_virtual_machine",
                    "depends_on": [],
                    "primary": {"id": "dc/vm/tf/dc/svc-a/old", "attributes": {"name": "old", "num_cpus": "2"}}
                },
                "svc-a.win-standard-m.1": {
                    "type": "vsphere_virtual_machine",
                    "depends_on": [],
                    "primary": {"id": "dc/vm/tf/dc/svc-a/host1", "attributes": {"name": "host1", "num_cpus": "2"}}
                }
            }
        }
    ]
}`

const runInventory = `vapp,hostname,template,expires
dc/svc-a,host1,winM,
`

type runFixture struct {
	dir       string
	statePath string
	invPath   string
	run       *Run
}

func newRunFixture(t *testing.T, stateDoc, inv string) *runFixture {
	t.Helper()
	dir := t.TempDir()
	f := &runFixture{
		dir:       dir,
		statePath: filepath.Join(dir, "terraform.tfstate"),
		invPath:   filepath.Join(dir, "inventory.csv"),
	}
	if stateDoc != "" {
		require.NoError(t, os.WriteFile(f.statePath, []byte(stateDoc), 0644))
	}
	require.NoError(t, os.WriteFile(f.invPath, []byte(inv), 0644))

	mgr := state.NewManager(state.NewLocalStore(dir), "terraform.tfstate", "")
	f.run = NewRun(mgr, f.invPath, DefaultOptions(), nil)
	f.run.Now = func() time.Time { return testNow }
	return f
}

func (f *runFixture) backupExists() bool {
	_, err := os.Stat(f.statePath + state.BackupSuffix)
	return err == nil
}

func TestRun_Execute(t *testing.T) {
	f := newRunFixture(t, runState, runInventory)

	plan, err := f.run.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.run.ID.String(), plan.RunID)
	assert.Equal(t, 1, plan.Summary.Stay)
	assert.Equal(t, 1, plan.Summary.Move)
	assert.False(t, f.backupExists())

	data, err := os.ReadFile(f.statePath)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, `"lineage": "5c2b1e0a"`)
	assert.Contains(t, out, `"num_cpus": "2"`)
	assert.Contains(t, out, `"data.esscsvhost.winM"`)
	assert.True(t, strings.HasSuffix(out, "}\n"))

	// host1 took slot 0, old was compacted behind it
	assert.Less(t, strings.Index(out, `"dc/vm/tf/dc/svc-a/host1"`), strings.Index(out, `"dc/vm/tf/dc/svc-a/old"`))

	// a second run is stable
	second, err := f.run.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, plan.Decisions[0].To, second.Decisions[0].To)
	again, err := os.ReadFile(f.statePath)
	require.NoError(t, err)
	assert.Equal(t, out, string(again))
}

func TestRun_NotInitialized(t *testing.T) {
	f := newRunFixture(t, "", runInventory)

	_, err := f.run.Execute(context.Background())
	assert.ErrorIs(t, err, state.ErrNotInitialized)
	assert.False(t, f.backupExists())
}

func TestRun_BackupConflict(t *testing.T) {
	f := newRunFixture(t, runState, runInventory)
	require.NoError(t, os.WriteFile(f.statePath+state.BackupSuffix, []byte("stale"), 0644))

	_, err := f.run.Execute(context.Background())
	assert.ErrorIs(t, err, state.ErrBackupExists)

	data, err := os.ReadFile(f.statePath)
	require.NoError(t, err)
	assert.Equal(t, runState, string(data))
}

func TestRun_FailuresKeepBackup(t *testing.T) {
	tests := []struct {
		name  string
		inv   string
		check func(t *testing.T, err error)
	}{
		{
			name: "bad date",
			inv:  "vapp,hostname,template,expires\ndc/svc-a,host1,winM,tomorrow\n",
			check: func(t *testing.T, err error) {
				var dateErr *inventory.DateFormatError
				assert.True(t, errors.As(err, &dateErr))
			},
		},
		{
			name: "inventory missing columns",
			inv:  "vapp,hostname\ndc/svc-a,host1\n",
			check: func(t *testing.T, err error) {
				var loadErr *inventory.LoadError
				assert.True(t, errors.As(err, &loadErr))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRunFixture(t, runState, tt.inv)

			_, err := f.run.Execute(context.Background())
			require.Error(t, err)
			tt.check(t, err)

			assert.True(t, f.backupExists())
			data, err := os.ReadFile(f.statePath)
			require.NoError(t, err)
			assert.Equal(t, runState, string(data))
		})
	}
}

func TestRun_Preview(t *testing.T) {
	f := newRunFixture(t, runState, runInventory)

	plan, err := f.run.Preview(context.Background())
	require.NoError(t, err)
	require.Len(t, plan.Decisions, 2)
	assert.Equal(t, "host1", plan.Decisions[0].Name)
	assert.Equal(t, ActionStay, plan.Decisions[0].Action)
	assert.Equal(t, "old", plan.Decisions[1].Name)
	assert.Equal(t, ActionMove, plan.Decisions[1].Action)

	assert.False(t, f.backupExists())
	data, err := os.ReadFile(f.statePath)
	require.NoError(t, err)
	assert.Equal(t, runState, string(data))
}

func TestRun_Cancelled(t *testing.T) {
	f := newRunFixture(t, runState, runInventory)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.run.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
