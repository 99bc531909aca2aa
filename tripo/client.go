package tripo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hamadhk7/3D-AR-GENERATOR/internal/tlsutil"
	"github.com/hamadhk7/3D-AR-GENERATOR/types"
)

// Client calls the Tripo3D OpenAPI. It holds no mutable state beyond
// configuration, so a single instance is safe to share across requests.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a new Tripo3D client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultConfig().Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(timeout),
		logger: logger.With(zap.String("component", "tripo_client")),
	}
}

func (c *Client) Name() string { return "tripo3d" }

type taskRequest struct {
	Type           string `json:"type"`
	Prompt         string `json:"prompt,omitempty"`
	ModelVersion   string `json:"model_version,omitempty"`
	Seed           *int   `json:"seed,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
}

type taskResponse struct {
	Code       int    `json:"code"`
	Message    string `json:"message,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Data       struct {
		TaskID   string `json:"task_id"`
		Status   string `json:"status"`
		Progress int    `json:"progress"`
		Output   struct {
			Model         string `json:"model"`
			PbrModel      string `json:"pbr_model"`
			RenderedImage string `json:"rendered_image"`
		} `json:"output"`
		CreatedAt string `json:"create_time,omitempty"`
	} `json:"data"`
}

// Submit creates a text_to_model task and returns its handle. The request is
// validated against the closed parameter enumerations before any network
// call. Submission is never retried here; resubmission is the caller's call.
func (c *Client) Submit(ctx context.Context, req *SubmitRequest) (JobHandle, error) {
	if err := req.Validate(); err != nil {
		return JobHandle{}, err
	}

	body := taskRequest{
		Type:           "text_to_model",
		Prompt:         req.Prompt,
		ModelVersion:   c.cfg.Model,
		Seed:           req.Seed,
		NegativePrompt: req.NegativePrompt,
	}

	payload, _ := json.Marshal(body)
	endpoint := fmt.Sprintf("%s/task", strings.TrimRight(c.cfg.BaseURL, "/"))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return JobHandle{}, types.NewError(types.ErrInternalError, "failed to build submit request").WithCause(err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return JobHandle{}, types.NewError(types.ErrRemoteSubmission, "tripo submit request failed").
			WithCause(err).
			WithProvider(c.Name()).
			WithRetryable(true)
	}
	defer resp.Body.Close()

	var tResp taskResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&tResp); decodeErr != nil {
		return JobHandle{}, types.NewError(types.ErrRemoteSubmission, "failed to decode tripo response").
			WithCause(decodeErr).
			WithHTTPStatus(resp.StatusCode).
			WithProvider(c.Name())
	}

	if resp.StatusCode >= 400 || tResp.Code != 0 {
		msg := tResp.Message
		if msg == "" {
			msg = fmt.Sprintf("tripo rejected task: status=%d code=%d", resp.StatusCode, tResp.Code)
		}
		if tResp.Suggestion != "" {
			msg = msg + " - " + tResp.Suggestion
		}
		return JobHandle{}, types.NewError(types.ErrRemoteSubmission, msg).
			WithHTTPStatus(resp.StatusCode).
			WithProvider(c.Name())
	}

	c.logger.Info("task created",
		zap.String("task_id", tResp.Data.TaskID),
		zap.String("prompt", req.Prompt),
	)

	return JobHandle{TaskID: tResp.Data.TaskID}, nil
}

// GetStatus fetches a snapshot of the remote job. Pure read; unrecognized
// provider statuses map to StatusUnknown rather than erroring.
func (c *Client) GetStatus(ctx context.Context, handle JobHandle) (*Job, error) {
	endpoint := fmt.Sprintf("%s/task/%s", strings.TrimRight(c.cfg.BaseURL, "/"), handle.TaskID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to build status request").WithCause(err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "tripo status request failed").
			WithCause(err).
			WithProvider(c.Name()).
			WithRetryable(true)
	}
	defer resp.Body.Close()

	var tResp taskResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&tResp); decodeErr != nil {
		return nil, types.NewError(types.ErrUpstreamError, "failed to decode tripo status response").
			WithCause(decodeErr).
			WithHTTPStatus(resp.StatusCode).
			WithProvider(c.Name())
	}

	if resp.StatusCode >= 400 || tResp.Code != 0 {
		msg := tResp.Message
		if msg == "" {
			msg = fmt.Sprintf("tripo status failed: status=%d code=%d", resp.StatusCode, tResp.Code)
		}
		return nil, types.NewError(types.ErrUpstreamError, msg).
			WithHTTPStatus(resp.StatusCode).
			WithProvider(c.Name())
	}

	job := &Job{
		TaskID:          handle.TaskID,
		Status:          NormalizeStatus(tResp.Data.Status),
		RawStatus:       tResp.Data.Status,
		ProgressPercent: clampProgress(tResp.Data.Progress),
		ThumbnailURL:    tResp.Data.Output.RenderedImage,
		CreatedAt:       tResp.Data.CreatedAt,
	}

	// The PBR model is the richer artifact when present.
	if tResp.Data.Output.PbrModel != "" {
		job.OutputLocator = tResp.Data.Output.PbrModel
	} else {
		job.OutputLocator = tResp.Data.Output.Model
	}

	if job.Status == StatusFailed && tResp.Message != "" {
		job.FailureMessage = tResp.Message
	}

	return job, nil
}

// FetchArtifact streams the artifact at locator into destDir as
// "<localID>.<ext>" and returns the local path. If the file already exists it
// is reused without re-fetching, so repeated calls for the same id are
// idempotent.
func (c *Client) FetchArtifact(ctx context.Context, locator, destDir, localID, ext string) (string, error) {
	if locator == "" {
		return "", types.NewError(types.ErrArtifactUnavailable, "no download URL available").
			WithProvider(c.Name())
	}
	if ext == "" {
		ext = "glb"
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", types.NewError(types.ErrStorage, "failed to create artifact directory").WithCause(err)
	}

	path := filepath.Join(destDir, fmt.Sprintf("%s.%s", localID, ext))
	if _, err := os.Stat(path); err == nil {
		c.logger.Debug("artifact already cached", zap.String("path", path))
		return path, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return "", types.NewError(types.ErrInternalError, "failed to build artifact request").WithCause(err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", types.NewError(types.ErrUpstreamError, "artifact download failed").
			WithCause(err).
			WithProvider(c.Name()).
			WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", types.NewError(types.ErrUpstreamError,
			fmt.Sprintf("artifact download failed: status=%d", resp.StatusCode)).
			WithHTTPStatus(resp.StatusCode).
			WithProvider(c.Name())
	}

	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return "", types.NewError(types.ErrStorage, "failed to create artifact file").WithCause(err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", types.NewError(types.ErrStorage, "failed to write artifact file").WithCause(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", types.NewError(types.ErrStorage, "failed to close artifact file").WithCause(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", types.NewError(types.ErrStorage, "failed to finalize artifact file").WithCause(err)
	}

	c.logger.Info("artifact downloaded",
		zap.String("path", path),
		zap.String("locator", locator),
	)

	return path, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
