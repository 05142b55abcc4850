package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/fin-foresight/foresight/internal/errors"
)

func TestAgents_DefaultOrder(t *testing.T) {
	out, _, err := execute(t, "agents", "-C", t.TempDir())
	require.NoError(t, err)

	assert.Contains(t, out, "1. data_analyst")
	assert.Contains(t, out, "4. risk_advisor")
	assert.Contains(t, out, "Trade Strategy")
}

func TestAgents_ProjectConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".foresight"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".foresight", "config.toml"),
		[]byte("[workflow]\nagents = [\"risk_advisor\", \"data_analyst\"]\n"), 0644))

	out, _, err := execute(t, "agents", "-C", dir, "--format", "json")
	require.NoError(t, err)

	var infos []agentInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos), out)
	require.Len(t, infos, 2)
	assert.Equal(t, "risk_advisor", string(infos[0].ID))
	assert.Equal(t, "Data Analyst", infos[1].Title)
}

func TestAgents_DuplicateInConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "dup.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[workflow]\nagents = [\"data_analyst\", \"data_analyst\"]\n"), 0644))

	_, _, err := execute(t, "agents", "-C", dir, "--config", cfgPath)
	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.CodeAgentDuplicate))
}
