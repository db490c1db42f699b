package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		machineType string
	}{
		{"standard mid-name", "svc-a.os-standard-m", "osM"},
		{"standard suffix", "svc-a.win-m-standard", "winM"},
		{"no standard", "svc-a.rhel-l", "rhelL"},
		{"domain flag kept verbatim", "svc-a.win-standard-m-domain", "winMdomain"},
		{"bare template", "win-xl", "winXL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, err := Classify(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.machineType, class.MachineType)
			assert.Equal(t, "data.esscsvhost."+tt.machineType, class.DataProvider)
		})
	}
}

func TestClassify_Malformed(t *testing.T) {
	for _, key := range []string{"svc-a.win", "svc-a.win-standard", ""} {
		_, err := Classify(key)
		var tplErr *TemplateError
		require.True(t, errors.As(err, &tplErr), "key %q", key)
		assert.Equal(t, key, tplErr.Key)
	}
}

func TestClassify_Prefix(t *testing.T) {
	class, err := ClassifyWith("svc.win-m", "data.hosts")
	require.NoError(t, err)
	assert.Equal(t, "data.hosts.winM", class.DataProvider)
}
