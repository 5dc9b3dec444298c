package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsCurator/internal/domain"
)

func writeInputs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	feeds := filepath.Join(dir, "feeds.json")
	prompt := filepath.Join(dir, "prompt.md")
	require.NoError(t, os.WriteFile(feeds, []byte(`[{"name":"a","url":"https://a.example.com/rss"},{"name":"b","url":"https://b.example.com/rss","enabled":false}]`), 0o600))
	require.NoError(t, os.WriteFile(prompt, []byte("{title}"), 0o600))

	cfgPath := filepath.Join(dir, "nus.yaml")
	body := fmt.Sprintf("paths:\n  feedsConfig: %s\n  promptTemplate: %s\nstorage:\n  historyPath: %s\n",
		feeds, prompt, filepath.Join(dir, "history.db"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o600))
	return cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	cfgPath := writeInputs(t)

	out, err := execute(t, "validate", "--config", cfgPath, "--env-file", "", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "feeds:    2 (1 enabled)")
	assert.Contains(t, out, "claude-3-haiku-20240307 (anthropic)")
}

func TestValidateCommand_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfgPath := writeInputs(t)

	_, err := execute(t, "validate", "--config", cfgPath, "--env-file", "")
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestHistoryCommand_Empty(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	cfgPath := writeInputs(t)

	out, err := execute(t, "history", "--config", cfgPath, "--env-file", "")
	require.NoError(t, err)
	assert.Contains(t, out, "GENERATED")
}

func TestRunCommand_FailsFastOnConfig(t *testing.T) {
	_, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "absent.yaml"), "--env-file", "")
	assert.ErrorIs(t, err, domain.ErrConfig)
}
