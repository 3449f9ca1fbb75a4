package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformSupports(t *testing.T) {
	tests := []struct {
		platform Platform
		action   Action
		want     bool
	}{
		{PlatformIOS, ActionCanAddPasses, true},
		{PlatformIOS, ActionHasPass, true},
		{PlatformIOS, ActionViewPass, true},
		{PlatformAndroid, ActionAddPass, true},
		{PlatformAndroid, ActionHasPass, false},
		{PlatformAndroid, ActionRemovePass, false},
		{PlatformAndroid, ActionViewPass, false},
		{Platform("web"), ActionAddPass, false},
		{PlatformIOS, Action("bogus"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.platform.Supports(tt.action), "%s/%s", tt.platform, tt.action)
	}

	assert.Equal(t, AllActions, PlatformIOS.Actions())
	assert.Equal(t, []Action{ActionCanAddPasses, ActionAddPass}, PlatformAndroid.Actions())
}

func TestParsePlatform(t *testing.T) {
	p, err := ParsePlatform(" iOS ")
	require.NoError(t, err)
	assert.Equal(t, PlatformIOS, p)

	_, err = ParsePlatform("windows")
	assert.Error(t, err)
}

func TestResultJSON(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		json   string
		truthy bool
	}{
		{"bool true", BoolResult(true), "true", true},
		{"bool false", BoolResult(false), "false", false},
		{"none", NoneResult(), "null", false},
		{"text", TextResult("done"), `"done"`, true},
		{"empty text", TextResult(""), `""`, false},
		{"object", ObjectResult(map[string]int{"removed": 1}), `{"removed":1}`, true},
		{"unencodable", ObjectResult(make(chan int)), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.json != "" {
				assert.Equal(t, tt.json, tt.result.JSON())
			} else {
				assert.NotEmpty(t, tt.result.JSON())
			}
			assert.Equal(t, tt.truthy, tt.result.Truthy())
		})
	}
}

func TestLoadPasses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "passes.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {"label": "Gym", "serialNumber": "g1", "url": "https://example.com/gym.pkpass"},
  {"label": "Cafe", "passTypeIdentifier": "pass.example.cafe", "serialNumber": "c1", "url": "https://example.com/cafe.pkpass"}
]`), 0o644))

	passes, err := LoadPasses(path)
	require.NoError(t, err)
	require.Len(t, passes, 2)
	assert.Equal(t, CardIdentifier, passes[0].PassTypeIdentifier)
	assert.Equal(t, "pass.example.cafe", passes[1].PassTypeIdentifier)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"label": "x"}]`), 0o644))
	_, err = LoadPasses(bad)
	assert.Error(t, err)

	dup := filepath.Join(dir, "dup.json")
	require.NoError(t, os.WriteFile(dup, []byte(`[
  {"label": "A", "serialNumber": "1", "url": "u"},
  {"label": "A", "serialNumber": "2", "url": "u"}
]`), 0o644))
	_, err = LoadPasses(dup)
	assert.Error(t, err)

	_, err = LoadPasses(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestDefaultPasses(t *testing.T) {
	passes := DefaultPasses()
	require.Len(t, passes, 2)
	assert.Equal(t, "Pass 1", passes[0].Label)
	assert.Equal(t, "serial201", passes[0].SerialNumber)
	assert.Equal(t, "serial202", passes[1].SerialNumber)
	for _, p := range passes {
		assert.Equal(t, "pass.haus.logica.exponfctest", p.PassTypeIdentifier)
	}
}
