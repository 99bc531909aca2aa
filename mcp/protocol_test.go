package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPMessage_MarshalPinsVersion(t *testing.T) {
	msg := &MCPMessage{ID: 1, Method: "tools/list"}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2.0", decoded["jsonrpc"])
	assert.Equal(t, "tools/list", decoded["method"])
}

func TestNewMCPError(t *testing.T) {
	msg := NewMCPError(42, ErrorCodeMethodNotFound, "method not found: bogus", nil)

	assert.Equal(t, "2.0", msg.JSONRPC)
	assert.Equal(t, 42, msg.ID)
	require.NotNil(t, msg.Error)
	assert.Equal(t, ErrorCodeMethodNotFound, msg.Error.Code)
	assert.Nil(t, msg.Result)
}

func TestToolDefinition_Validate(t *testing.T) {
	valid := &ToolDefinition{
		Name:        "generate_3d_model",
		Description: "Generate a model",
		InputSchema: map[string]any{"type": "object"},
	}
	assert.NoError(t, valid.Validate())

	assert.Error(t, (&ToolDefinition{Description: "x", InputSchema: map[string]any{}}).Validate())
	assert.Error(t, (&ToolDefinition{Name: "x", InputSchema: map[string]any{}}).Validate())
	assert.Error(t, (&ToolDefinition{Name: "x", Description: "y"}).Validate())
}
