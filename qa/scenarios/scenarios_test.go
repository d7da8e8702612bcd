package scenarios

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		sc, err := Load(f)
		require.NoError(t, err, f)
		t.Run(sc.Name, func(t *testing.T) {
			res, err := Run(sc)
			require.NoError(t, err)
			assert.Equal(t, len(sc.Steps), res.Steps)
			if !res.Passed() {
				t.Fatalf("failures:\n%s\n\nevent log:\n%s", strings.Join(res.Failures, "\n"), res.Console.Render(30))
			}
		})
	}
}

func TestRunReportsFailures(t *testing.T) {
	coin := 0.2
	want := 50
	sc := &Scenario{
		Name: "wrong",
		Coin: &coin,
		Steps: []Step{
			{Action: "emergency_stop"},
			{Action: "reset", Error: "boom"},
			{Expect: &Expect{ActivePct: &want, LogContains: "never logged"}},
		},
	}
	res, err := Run(sc)
	require.NoError(t, err)
	require.False(t, res.Passed())
	require.Len(t, res.Failures, 4)
	assert.Contains(t, res.Failures[0], "unexpected error")
	assert.Contains(t, res.Failures[1], `expected error containing "boom"`)
	assert.Contains(t, res.Failures[2], "active_pct: got 30, want 50")
	assert.Contains(t, res.Failures[3], "never logged")
}

func TestRunRejectsInvalidStation(t *testing.T) {
	_, err := Run(&Scenario{Name: "bad"})
	require.NoError(t, err)
	sc := &Scenario{Name: "bad"}
	sc.Station.FloorPct = 90
	_, err = Run(sc)
	require.Error(t, err)
}

func writeScenario(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load("no-file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	cases := map[string]string{
		"syntax":         ":",
		"no name":        "steps: []\n",
		"unknown action": "name: x\nsteps:\n  - action: fly\n",
		"at and after":   "name: x\nsteps:\n  - at: 1s\n    after: 1s\n",
		"backwards":      "name: x\nsteps:\n  - at: 5s\n  - at: 1s\n",
		"range":          "name: x\nsteps:\n  - expect:\n      active_pct_range: [1]\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeScenario(t, data))
			assert.Error(t, err)
		})
	}
}

func TestLoadParsesDurationsAndStation(t *testing.T) {
	sc, err := Load(writeScenario(t, "name: x\nstation:\n  id: bmh-9\n  floor_pct: 10\ncoin: 0.9\nsteps:\n  - at: 1500ms\n  - after: 2s\n"))
	require.NoError(t, err)
	assert.Equal(t, "bmh-9", sc.Station.ID)
	assert.Equal(t, 10, sc.Station.FloorPct)
	require.NotNil(t, sc.Coin)
	assert.Equal(t, 0.9, *sc.Coin)
	require.NotNil(t, sc.Steps[0].At)
	assert.Equal(t, "1.5s", sc.Steps[0].At.String())
	assert.Equal(t, "2s", sc.Steps[1].After.String())
}
