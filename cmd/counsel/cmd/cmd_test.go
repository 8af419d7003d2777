package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const partition = `{
	"E005": {"code": "E005", "name": "R V College of Engineering Bangalore", "branches": {
		"Computer Science and Engineering": {"2025": {"R1": {"GM": 300}}, "2024": {"R1": {"GM": 280}}},
		"Civil Engineering": {"2025": {"R1": {"GM": 25000}}}
	}},
	"E009": {"code": "E009", "name": "PES University Bangalore", "branches": {
		"Computer Science and Engineering": {"2025": {"R1": {"GM": 1500}}}
	}}
}`

type env struct {
	config   string
	registry string
	dir      string
}

func setup(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()

	data := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(data, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "colleges_01.json"), []byte(partition), 0o644))

	reg, err := os.ReadFile("../../../configs/activity-registry.json")
	require.NoError(t, err)
	regPath := filepath.Join(dir, "activity-registry.json")
	require.NoError(t, os.WriteFile(regPath, reg, 0o644))

	cfg := "counseling:\n  data_dir: " + data + "\n  index_strategy: memory\nregistry:\n  path: " + regPath + "\n"
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	return env{config: cfgPath, registry: regPath, dir: dir}
}

func run(t *testing.T, e env, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", e.config, "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestFind(t *testing.T) {
	e := setup(t)

	out, err := run(t, e, "find", "--rank", "1000", "--category", "GM", "--course", "cse", "--json")
	require.NoError(t, err)

	var result struct {
		Count           int `json:"count"`
		Recommendations []struct {
			CollegeCode string `json:"collegeCode"`
			Chance      string `json:"chance"`
		} `json:"recommendations"`
		Strategy string `json:"strategy"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, "memory", result.Strategy)

	table, err := run(t, e, "find", "--rank", "1000", "--course", "cse")
	require.NoError(t, err)
	assert.Contains(t, table, "R V College of Engineering Bangalore")
	assert.Contains(t, table, "2 result(s)")
}

func TestFind_Errors(t *testing.T) {
	e := setup(t)

	_, err := run(t, e, "find", "--course", "cse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rank")

	_, err = run(t, e, "find", "--rank", "-3", "--course", "cse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_QUERY_INPUT")
}

func TestCollege(t *testing.T) {
	e := setup(t)

	out, err := run(t, e, "college", "rvce", "--json")
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "found", result["status"])
	assert.Equal(t, "E005", result["collegeCode"])
	assert.Len(t, result["data"], 2)

	out, err = run(t, e, "college", "Nowhere", "Institute")
	require.NoError(t, err)
	assert.Contains(t, out, "College 'Nowhere Institute' not found.")
}

func TestStats(t *testing.T) {
	e := setup(t)

	out, err := run(t, e, "stats", "--json")
	require.NoError(t, err)

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, float64(2), stats["colleges"])
	assert.Equal(t, float64(3), stats["branches"])
	assert.Equal(t, true, stats["ready"])
}

func TestStats_MissingData(t *testing.T) {
	e := setup(t)

	_, err := run(t, e, "stats", "--data-dir", filepath.Join(e.dir, "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATASET_LOAD_FAILED")
}

func TestSupplement(t *testing.T) {
	e := setup(t)
	rows := filepath.Join(e.dir, "rows.json")
	require.NoError(t, os.WriteFile(rows, []byte(`[
		{"code": "E900", "name": "Uploaded College Mysore", "branch": "Mechanical Engineering", "category": "GM", "cutoffRank": 9000}
	]`), 0o644))

	out, err := run(t, e, "supplement", "-f", rows, "--json")
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, float64(1), result["accepted"])

	bad := filepath.Join(e.dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"code": "E900"}]`), 0o644))
	_, err = run(t, e, "supplement", "-f", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPPLEMENTARY_VALIDATION_FAILED")
}

func TestRegistry(t *testing.T) {
	e := setup(t)

	out, err := run(t, e, "registry", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "find-matching-colleges")
	assert.Contains(t, out, "rebuild-cutoff-index")

	out, err = run(t, e, "registry", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "4 activities OK")

	_, err = run(t, e, "registry", "set", "counseling.index.rebuild", "retries", "4")
	require.NoError(t, err)

	out, err = run(t, e, "registry", "list", "--json")
	require.NoError(t, err)
	var activities []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &activities))
	for _, a := range activities {
		if a["id"] == "counseling.index.rebuild" {
			assert.Equal(t, float64(4), a["retries"])
		}
	}

	_, err = run(t, e, "registry", "set", "counseling.index.rebuild", "colour", "blue")
	require.Error(t, err)
}

func TestRegistryCheck(t *testing.T) {
	e := setup(t)

	good := filepath.Join(e.dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"rank": 4500, "category": "GM", "course": "cse"}`), 0o644))
	out, err := run(t, e, "registry", "check", "find-matching-colleges", "-i", good)
	require.NoError(t, err)
	assert.Contains(t, out, "valid")

	bad := filepath.Join(e.dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"rank": 0, "category": "GM"}`), 0o644))
	_, err = run(t, e, "registry", "check", "find-matching-colleges", "-i", bad)
	require.Error(t, err)

	_, err = run(t, e, "registry", "check", "no-such-task", "-i", good)
	require.Error(t, err)
}
