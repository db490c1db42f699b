package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/picklr-io/tfreconcile/internal/engine"
	"github.com/picklr-io/tfreconcile/internal/inventory"
	"github.com/picklr-io/tfreconcile/internal/state"
)

const testState = `{
    "version": 3,
    "serial": 12,
    "modules": [
        {
            "path": ["root", "child", "svc-a"],
            "resources": {
                "data.esscsvhost.winM": {
                    "type": "esscsvhost",
                    "depends_on": [],
                    "primary": {"id": "winM", "attributes": {}}
                },
                "svc-a.win-standard-m.0": {
                    "type": "vsphere_virtual_machine",
                    "depends_on": [],
                    "primary": {"id": "dc/vm/tf/dc/svc-a/retired", "attributes": {"name": "retired"}}
                },
                "svc-a.win-standard-m.1": {
                    "type": "vsphere_virtual_machine",
                    "depends_on": [],
                    "primary": {"id": "dc/vm/tf/dc/svc-a/host1", "attributes": {"name": "host1"}}
                }
            }
        }
    ]
}`

const testInventory = `hostname,vapp,template,expires,cpu
host1,dc/svc-a,winM,,2
host2,dc/svc-a,rhelL,2001-01-01,4
host3,dc/svc-b,winM,,2
`

type cliFixture struct {
	dir       string
	statePath string
	invPath   string
}

func newCLIFixture(t *testing.T, withState bool) *cliFixture {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	f := &cliFixture{
		dir:       dir,
		statePath: filepath.Join(dir, "terraform.tfstate"),
		invPath:   filepath.Join(dir, "inventory.csv"),
	}
	if withState {
		require.NoError(t, os.WriteFile(f.statePath, []byte(testState), 0644))
	}
	require.NoError(t, os.WriteFile(f.invPath, []byte(testInventory), 0644))
	return f
}

func (f *cliFixture) backupPath() string {
	return f.statePath + state.BackupSuffix
}

// run executes the root command with the fixture's state and inventory.
func (f *cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	planOutput = formatText
	invVApp, invTemplate, invOutput, invTemplates = "", "", formatText, false
	backupFile = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--state", f.statePath, "--inventory", f.invPath))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestUpdate(t *testing.T) {
	f := newCLIFixture(t, true)

	out, err := f.run(t, "update")
	require.NoError(t, err)

	assert.Contains(t, out, "== Looking at module: root/child/svc-a")
	assert.Contains(t, out, "[STAY] == host1 == svc-a.win-standard-m.0")
	assert.Contains(t, out, "[DELETE] == retired == svc-a.win-standard-m.1")
	assert.Contains(t, out, "Delete:       1")

	_, err = os.Stat(f.backupPath())
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(f.statePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"data.esscsvhost.winM"`)
	assert.Less(t, strings.Index(string(data), "svc-a/host1"), strings.Index(string(data), "svc-a/retired"))
}

func TestUpdate_FirstRun(t *testing.T) {
	f := newCLIFixture(t, false)

	_, err := f.run(t, "update")
	require.NoError(t, err)

	_, err = os.Stat(f.statePath)
	assert.True(t, os.IsNotExist(err))
}

func TestUpdate_Locked(t *testing.T) {
	f := newCLIFixture(t, true)
	require.NoError(t, os.WriteFile(f.backupPath(), []byte(testState), 0644))

	_, err := f.run(t, "update")
	assert.ErrorIs(t, err, state.ErrBackupExists)
	assert.Contains(t, err.Error(), "tfreconcile unlock")

	// unlock clears it, a second unlock has nothing to do
	out, err := f.run(t, "unlock")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed backup file")

	_, err = f.run(t, "unlock")
	assert.ErrorIs(t, err, state.ErrNoBackup)

	_, err = f.run(t, "update")
	require.NoError(t, err)
}

func TestPlan(t *testing.T) {
	f := newCLIFixture(t, true)

	t.Run("text", func(t *testing.T) {
		out, err := f.run(t, "plan")
		require.NoError(t, err)
		assert.Contains(t, out, "[STAY] == host1 == svc-a.win-standard-m.0")
		assert.Contains(t, out, "Run 'tfreconcile update' to apply")
	})

	t.Run("json", func(t *testing.T) {
		out, err := f.run(t, "plan", "--output", "json")
		require.NoError(t, err)

		var plan engine.Plan
		require.NoError(t, json.Unmarshal([]byte(out), &plan))
		assert.NotEmpty(t, plan.RunID)
		require.Len(t, plan.Decisions, 2)
		assert.Equal(t, engine.ActionStay, plan.Decisions[0].Action)
		assert.Equal(t, "svc-a.win-standard-m.1", plan.Decisions[0].From)
		assert.Equal(t, 1, plan.Summary.Data)
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := f.run(t, "plan", "-o", "yaml")
		require.NoError(t, err)

		var plan engine.Plan
		require.NoError(t, yaml.Unmarshal([]byte(out), &plan))
		assert.Equal(t, 1, plan.Summary.Move)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := f.run(t, "plan", "-o", "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown output format")
	})

	// plan never writes
	data, err := os.ReadFile(f.statePath)
	require.NoError(t, err)
	assert.Equal(t, testState, string(data))
	_, err = os.Stat(f.backupPath())
	assert.True(t, os.IsNotExist(err))
}

func TestStateList(t *testing.T) {
	f := newCLIFixture(t, true)

	out, err := f.run(t, "state", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "State serial: 12")
	assert.Contains(t, out, "module root/child/svc-a")
	assert.Contains(t, out, "data.esscsvhost.winM (data)")
	assert.Contains(t, out, "svc-a.win-standard-m.1 -> host1 [svc-a.win-standard-m]")
	assert.Contains(t, out, "Total: 1 module(s), 3 resource(s)")
}

func TestInventory(t *testing.T) {
	f := newCLIFixture(t, true)

	t.Run("text", func(t *testing.T) {
		out, err := f.run(t, "inventory")
		require.NoError(t, err)
		assert.Contains(t, out, "host1")
		assert.Contains(t, out, "host3")
		assert.NotContains(t, out, "host2", "long expired hosts are left out")
	})

	t.Run("filtered json", func(t *testing.T) {
		out, err := f.run(t, "inventory", "--vapp", "svc-a", "-o", "json")
		require.NoError(t, err)

		var hosts []inventory.Host
		require.NoError(t, json.Unmarshal([]byte(out), &hosts))
		require.Len(t, hosts, 1)
		assert.Equal(t, "host1", hosts[0].Hostname)
		assert.Equal(t, inventory.PowerIgnored, hosts[0].Power)
		assert.Equal(t, "2", hosts[0].Attributes["cpu"])
	})

	t.Run("templates", func(t *testing.T) {
		out, err := f.run(t, "inventory", "--templates")
		require.NoError(t, err)
		assert.Equal(t, "rhelL\nwinM\n", out)
	})
}

func TestClassify(t *testing.T) {
	f := newCLIFixture(t, false)

	out, err := f.run(t, "classify", "svc-a.os-standard-m.0")
	require.NoError(t, err)
	assert.Contains(t, out, "logical:  svc-a.os-standard-m")
	assert.Contains(t, out, "machine:  osM")
	assert.Contains(t, out, "provider: data.esscsvhost.osM")

	_, err = f.run(t, "classify", "svc-a.win.0")
	var tplErr *engine.TemplateError
	assert.ErrorAs(t, err, &tplErr)
}

func TestVersion(t *testing.T) {
	f := newCLIFixture(t, false)

	out, err := f.run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "tfreconcile version dev"))
}

func TestWriteStructured(t *testing.T) {
	tests := []struct {
		format   string
		expected string
	}{
		{formatJSON, "{\n  \"a\": 1\n}\n"},
		{formatYAML, "a: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeStructured(&buf, tt.format, map[string]int{"a": 1}))
			assert.Equal(t, tt.expected, buf.String())
		})
	}

	assert.Error(t, writeStructured(&bytes.Buffer{}, formatText, nil))
	assert.Error(t, checkFormat("xml", formatText, formatJSON))
	assert.NoError(t, checkFormat(formatJSON, formatText, formatJSON))
}
