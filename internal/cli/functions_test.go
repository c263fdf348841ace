package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionsText(t *testing.T) {
	out, err := execute(t, "functions")
	require.NoError(t, err)

	assert.Contains(t, out, "contains(2) Edm.Boolean [3.0: substringof]\n")
	assert.Contains(t, out, "substring(2-3) Edm.String\n")
	assert.Contains(t, out, "now(0) Edm.DateTimeOffset [4.0 only]\n")
}

func TestFunctionsJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "functions")
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   []FunctionSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotEmpty(t, resp.Data)

	names := make([]string, len(resp.Data))
	for i, f := range resp.Data {
		names[i] = f.Name
	}
	assert.IsIncreasing(t, names)
	assert.Contains(t, resp.Data, FunctionSummary{Name: "length", MinArgs: 1, MaxArgs: 1, Result: "Edm.Int32"})
}
