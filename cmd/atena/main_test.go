package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarningsCommand(t *testing.T) {
	dir := t.TempDir()
	resp := filepath.Join(dir, "response.json")
	require.NoError(t, os.WriteFile(resp, []byte(`{
		"statistics": {"counterpart": {"financial": 0, "assetsAndServices": 0}},
		"agreements": [
			{"id": "a1", "proposalData": {"programs": [{"value": 2000000}]}},
			{"id": "a2", "convenientExecution": {"executionProcesses": [
				{"accepted": "Rejeitado", "details": {"executionProcess": "Licitação"}}
			]}}
		]
	}`), 0o600))
	cfgPath := filepath.Join(dir, "atena.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
warningRules:
  - name: big
    expression: totalValue > 1000000
`), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"warnings", "--config", cfgPath, resp})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configFile = ""
	})
	require.NoError(t, rootCmd.Execute())

	var report struct {
		BiddingRejected    []string            `json:"biddingRejected"`
		CounterpartMissing bool                `json:"counterpartMissing"`
		Custom             map[string][]string `json:"custom"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report), out.String())
	assert.Equal(t, []string{"a2"}, report.BiddingRejected)
	assert.True(t, report.CounterpartMissing)
	assert.Equal(t, []string{"a1"}, report.Custom["big"])
}

func TestWarningsCommandNeedsFile(t *testing.T) {
	rootCmd.SetArgs([]string{"warnings"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	assert.Error(t, rootCmd.Execute())
}
