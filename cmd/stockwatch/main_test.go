package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	tests := map[string]struct {
		args      string
		expErr    string
		expStdout func(t *testing.T, out []byte)
	}{
		"Analyze should print the completed task result.": {
			args: "analyze dragon --sector banks --no-progress --format json",
			expStdout: func(t *testing.T, out []byte) {
				var got map[string]any
				require.NoError(t, json.Unmarshal(out, &got))
				assert.Equal(t, "completed", got["status"])
				assert.Equal(t, "dragon", got["kind"])
				display := got["display"].(map[string]any)
				assert.Equal(t, "banks", display["sector"])
				assert.Equal(t, float64(3), display["total_analyzed"])
			},
		},

		"Analyze of an unsupported kind on the server should fail with the server error.": {
			args:   "analyze undervalued --no-progress",
			expErr: "unsupported task type: undervalued",
			expStdout: func(t *testing.T, out []byte) {
				assert.Contains(t, string(out), "Failure:    server_reported")
			},
		},

		"Analyze with an invalid param should fail.": {
			args:   "analyze dragon --param 1bad=x --no-progress",
			expErr: "invalid --param value",
		},

		"Analyze of an unknown kind should fail.": {
			args:   "analyze magic",
			expErr: "invalid command configuration",
		},

		"Status of an unknown task should fail.": {
			args:   "status missing-task",
			expErr: "not found",
		},

		"Kinds should list all the analysis kinds.": {
			args: "kinds --format json",
			expStdout: func(t *testing.T, out []byte) {
				var got []map[string]any
				require.NoError(t, json.Unmarshal(out, &got))
				assert.Len(t, got, 5)
			},
		},

		"History of a new database should be empty.": {
			args: "history",
			expStdout: func(t *testing.T, out []byte) {
				assert.Equal(t, "No tasks found", strings.TrimSpace(string(out)))
			},
		},

		"History show of an unknown task should fail.": {
			args:   "history show missing-task",
			expErr: "not found",
		},

		"History with an active status should fail.": {
			args:   "history list --status running",
			expErr: "invalid command configuration",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := Run(context.Background(), testArgs(t.TempDir(), test.args), nil, &stdout, &stderr)

			if test.expErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), test.expErr)
			} else {
				require.NoError(t, err)
			}

			if test.expStdout != nil {
				test.expStdout(t, stdout.Bytes())
			}
		})
	}
}

func testArgs(dir, args string) []string {
	return append([]string{
		"stockwatch",
		"--fake-backend",
		"--poll-interval=1ms",
		"--config=",
		"--history-db=" + filepath.Join(dir, "history.db"),
	}, strings.Fields(args)...)
}

func TestRunHistory(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	ctx := context.Background()
	dir := t.TempDir()

	run := func(args string) ([]byte, error) {
		var stdout, stderr bytes.Buffer
		err := Run(ctx, testArgs(dir, args), nil, &stdout, &stderr)
		return stdout.Bytes(), err
	}

	out, err := run("--history analyze dragon --sector liquor --no-progress --format json")
	require.NoError(err)
	var analyzed map[string]any
	require.NoError(json.Unmarshal(out, &analyzed))

	_, err = run("--history analyze undervalued --no-progress")
	require.Error(err)

	_, err = run("analyze dragon --no-progress")
	require.NoError(err)

	out, err = run("history list --format json")
	require.NoError(err)
	var records []map[string]any
	require.NoError(json.Unmarshal(out, &records))
	require.Len(records, 2)
	assert.Equal("undervalued", records[0]["kind"])
	assert.Equal("failed", records[0]["status"])
	assert.Equal("dragon", records[1]["kind"])
	assert.Equal("liquor", records[1]["params"].(map[string]any)["sector"])
	assert.Equal("completed", records[1]["status"])

	out, err = run("history list --kind dragon --format json")
	require.NoError(err)
	require.NoError(json.Unmarshal(out, &records))
	require.Len(records, 1)

	out, err = run("history show " + analyzed["task_id"].(string) + " --format json")
	require.NoError(err)
	var shown map[string]any
	require.NoError(json.Unmarshal(out, &shown))
	assert.Equal(analyzed["launch_id"], shown["launch_id"])
	assert.Equal("completed", shown["status"])
	assert.NotNil(shown["display"])
}
