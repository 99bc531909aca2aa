package mcp

import (
	"context"
	"fmt"

	"github.com/hamadhk7/3D-AR-GENERATOR/generation"
	"github.com/hamadhk7/3D-AR-GENERATOR/ledger"
	"github.com/hamadhk7/3D-AR-GENERATOR/store"
	"github.com/hamadhk7/3D-AR-GENERATOR/tripo"
)

// Service is the orchestration surface the tools call into.
type Service interface {
	Generate(ctx context.Context, req *tripo.SubmitRequest) (*store.ModelRecord, error)
	ListModels(ctx context.Context, limit, offset int) ([]store.ModelRecord, int, error)
	GetModel(ctx context.Context, id string) (*store.ModelRecord, error)
	CreditStatus(ctx context.Context) (*ledger.Snapshot, error)
	ConvertFormat(ctx context.Context, id, targetFormat string) (*generation.ConvertJob, error)
}

// RegisterGenerationTools registers the text-to-3D tool set on srv.
func RegisterGenerationTools(srv *Server, svc Service) error {
	tools := []struct {
		def     *ToolDefinition
		handler ToolHandler
	}{
		{
			def: &ToolDefinition{
				Name:        "generate_3d_model",
				Description: "Generate a 3D model from a text prompt. Blocks until generation finishes and consumes one local credit.",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"prompt": map[string]any{
							"type":        "string",
							"description": "Text description of the model, 3 to 1000 characters",
						},
						"format": map[string]any{
							"type": "string",
							"enum": tripo.ValidFormats,
						},
						"quality": map[string]any{
							"type": "string",
							"enum": tripo.ValidQualities,
						},
						"seed": map[string]any{
							"type": "integer",
						},
						"negative_prompt": map[string]any{
							"type": "string",
						},
					},
					"required": []string{"prompt"},
				},
			},
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				req := &tripo.SubmitRequest{
					Prompt:         argString(args, "prompt"),
					Format:         argString(args, "format"),
					Quality:        argString(args, "quality"),
					NegativePrompt: argString(args, "negative_prompt"),
				}
				if seed, ok := argInt(args, "seed"); ok {
					req.Seed = &seed
				}

				rec, err := svc.Generate(ctx, req)
				if err != nil {
					return nil, err
				}
				return map[string]any{"model": rec}, nil
			},
		},
		{
			def: &ToolDefinition{
				Name:        "list_models",
				Description: "List generated models, newest first.",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"limit": map[string]any{
							"type":        "integer",
							"description": "Maximum number of models to return",
						},
						"offset": map[string]any{
							"type": "integer",
						},
					},
				},
			},
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				limit, _ := argInt(args, "limit")
				offset, _ := argInt(args, "offset")

				models, total, err := svc.ListModels(ctx, limit, offset)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"models": models,
					"total":  total,
				}, nil
			},
		},
		{
			def: &ToolDefinition{
				Name:        "get_model_info",
				Description: "Get the full record of one generated model by id.",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"model_id": map[string]any{
							"type": "string",
						},
					},
					"required": []string{"model_id"},
				},
			},
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				id := argString(args, "model_id")
				if id == "" {
					return nil, fmt.Errorf("model_id is required")
				}

				rec, err := svc.GetModel(ctx, id)
				if err != nil {
					return nil, err
				}
				return map[string]any{"model": rec}, nil
			},
		},
		{
			def: &ToolDefinition{
				Name:        "convert_model_format",
				Description: "Request conversion of a generated model to another format. Currently acknowledged but not executed.",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"model_id": map[string]any{
							"type": "string",
						},
						"target_format": map[string]any{
							"type": "string",
							"enum": tripo.ValidFormats,
						},
					},
					"required": []string{"model_id", "target_format"},
				},
			},
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				job, err := svc.ConvertFormat(ctx,
					argString(args, "model_id"),
					argString(args, "target_format"),
				)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"job_id":  job.JobID,
					"message": job.Message,
				}, nil
			},
		},
		{
			def: &ToolDefinition{
				Name:        "get_credits",
				Description: "Get the locally tracked credit balance.",
				InputSchema: map[string]any{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
			handler: func(ctx context.Context, args map[string]any) (any, error) {
				snap, err := svc.CreditStatus(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"free_balance":   snap.FreeBalance,
					"total_consumed": snap.TotalConsumed,
					"last_updated":   snap.LastUpdated,
					"source":         "local",
				}, nil
			},
		},
	}

	for _, t := range tools {
		if err := srv.RegisterTool(t.def, t.handler); err != nil {
			return fmt.Errorf("register %s: %w", t.def.Name, err)
		}
	}
	return nil
}

func argString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// argInt reads a JSON number argument. JSON decoding yields float64.
func argInt(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}
