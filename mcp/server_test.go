package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamadhk7/3D-AR-GENERATOR/generation"
	"github.com/hamadhk7/3D-AR-GENERATOR/ledger"
	"github.com/hamadhk7/3D-AR-GENERATOR/store"
	"github.com/hamadhk7/3D-AR-GENERATOR/tripo"
	"github.com/hamadhk7/3D-AR-GENERATOR/types"
)

// fakeToolService scripts the orchestration layer behind the tools.
type fakeToolService struct {
	rec     *store.ModelRecord
	recErr  error
	models  []store.ModelRecord
	total   int
	snap    *ledger.Snapshot
	lastReq *tripo.SubmitRequest
}

func (f *fakeToolService) Generate(_ context.Context, req *tripo.SubmitRequest) (*store.ModelRecord, error) {
	f.lastReq = req
	return f.rec, f.recErr
}

func (f *fakeToolService) ListModels(_ context.Context, limit, offset int) ([]store.ModelRecord, int, error) {
	return f.models, f.total, nil
}

func (f *fakeToolService) GetModel(_ context.Context, id string) (*store.ModelRecord, error) {
	if f.rec != nil && f.rec.ID == id {
		return f.rec, nil
	}
	return nil, types.NewError(types.ErrNotFound, "model not found")
}

func (f *fakeToolService) CreditStatus(_ context.Context) (*ledger.Snapshot, error) {
	return f.snap, nil
}

func (f *fakeToolService) ConvertFormat(_ context.Context, id, targetFormat string) (*generation.ConvertJob, error) {
	return &generation.ConvertJob{JobID: "convert_test", Message: "acknowledged"}, nil
}

func newToolServer(t *testing.T, svc Service) *Server {
	t.Helper()
	srv := NewServer("argen", "1.0.0", zap.NewNop())
	require.NoError(t, RegisterGenerationTools(srv, svc))
	return srv
}

func TestServer_Initialize(t *testing.T) {
	srv := newToolServer(t, &fakeToolService{})

	resp, err := srv.HandleMessage(context.Background(), NewMCPRequest(1, "initialize", nil))
	require.NoError(t, err)
	require.NotNil(t, resp)

	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, MCPVersion, result["protocolVersion"])
}

func TestServer_ToolsList(t *testing.T) {
	srv := newToolServer(t, &fakeToolService{})

	resp, err := srv.HandleMessage(context.Background(), NewMCPRequest(2, "tools/list", nil))
	require.NoError(t, err)

	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	tools, ok := result["tools"].([]ToolDefinition)
	require.True(t, ok)
	assert.Len(t, tools, 5)

	names := make(map[string]bool)
	for _, tool := range tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"generate_3d_model", "list_models", "get_model_info", "convert_model_format", "get_credits"} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}

func TestServer_CallGenerateTool(t *testing.T) {
	svc := &fakeToolService{
		rec: &store.ModelRecord{ID: "tripo_abc123", Prompt: "A red cube", Status: "completed"},
	}
	srv := newToolServer(t, svc)

	resp, err := srv.HandleMessage(context.Background(), NewMCPRequest(3, "tools/call", map[string]any{
		"name": "generate_3d_model",
		"arguments": map[string]any{
			"prompt":  "A red cube",
			"format":  "glb",
			"quality": "high",
			"seed":    float64(7),
		},
	}))
	require.NoError(t, err)
	require.Nil(t, resp.Error)

	require.NotNil(t, svc.lastReq)
	assert.Equal(t, "A red cube", svc.lastReq.Prompt)
	require.NotNil(t, svc.lastReq.Seed)
	assert.Equal(t, 7, *svc.lastReq.Seed)

	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.NotNil(t, result["model"])
}

func TestServer_CallToolErrorSurfaced(t *testing.T) {
	svc := &fakeToolService{
		recErr: types.NewError(types.ErrInsufficientCredit, "insufficient local credits"),
	}
	srv := newToolServer(t, svc)

	resp, err := srv.HandleMessage(context.Background(), NewMCPRequest(4, "tools/call", map[string]any{
		"name":      "generate_3d_model",
		"arguments": map[string]any{"prompt": "A red cube"},
	}))
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrorCodeInternalError, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "insufficient local credits")
}

func TestServer_CallUnknownTool(t *testing.T) {
	srv := newToolServer(t, &fakeToolService{})

	resp, err := srv.HandleMessage(context.Background(), NewMCPRequest(5, "tools/call", map[string]any{
		"name": "summon_dragon",
	}))
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "tool not found")
}

func TestServer_UnknownMethod(t *testing.T) {
	srv := newToolServer(t, &fakeToolService{})

	resp, err := srv.HandleMessage(context.Background(), NewMCPRequest(6, "resources/list", nil))
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrorCodeMethodNotFound, resp.Error.Code)
}

func TestServer_NotificationGetsNoResponse(t *testing.T) {
	srv := newToolServer(t, &fakeToolService{})

	resp, err := srv.HandleMessage(context.Background(), &MCPMessage{
		JSONRPC: "2.0",
		Method:  "notifications/initialized",
	})
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestServer_GetCreditsTool(t *testing.T) {
	svc := &fakeToolService{
		snap: &ledger.Snapshot{FreeBalance: 5219, TotalConsumed: 1, LastUpdated: time.Now()},
	}
	srv := newToolServer(t, svc)

	result, err := srv.CallTool(context.Background(), "get_credits", nil)
	require.NoError(t, err)

	payload, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(5219), payload["free_balance"])
	assert.Equal(t, "local", payload["source"])
}

func TestServer_HandleHTTP(t *testing.T) {
	srv := newToolServer(t, &fakeToolService{})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/mcp",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	srv.HandleHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var msg MCPMessage
	require.NoError(t, json.NewDecoder(w.Body).Decode(&msg))
	assert.Equal(t, "2.0", msg.JSONRPC)
	assert.Nil(t, msg.Error)
}

func TestServer_HandleHTTP_ParseError(t *testing.T) {
	srv := newToolServer(t, &fakeToolService{})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{nope`))
	srv.HandleHTTP(w, r)

	var msg MCPMessage
	require.NoError(t, json.NewDecoder(w.Body).Decode(&msg))
	require.NotNil(t, msg.Error)
	assert.Equal(t, ErrorCodeParseError, msg.Error.Code)
}
