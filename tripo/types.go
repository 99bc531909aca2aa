// Package tripo provides a client for the Tripo3D text-to-model OpenAPI.
package tripo

import (
	"strings"

	"github.com/hamadhk7/3D-AR-GENERATOR/types"
)

// JobStatus is the normalized status vocabulary for a remote generation job.
// Whatever the provider reports is mapped into this closed set; values the
// client does not recognize become StatusUnknown, never an error.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusSucceeded JobStatus = "succeeded"
	StatusFailed    JobStatus = "failed"
	StatusUnknown   JobStatus = "unknown"
)

// Terminal reports whether the status ends the remote job lifecycle.
func (s JobStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// NormalizeStatus maps the provider's status vocabulary into the closed
// JobStatus set.
func NormalizeStatus(raw string) JobStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "queued", "pending":
		return StatusQueued
	case "running", "processing":
		return StatusRunning
	case "success", "succeeded", "completed":
		return StatusSucceeded
	case "failed", "failure", "cancelled", "banned", "expired":
		return StatusFailed
	default:
		return StatusUnknown
	}
}

// JobHandle identifies a submitted remote job.
type JobHandle struct {
	TaskID string `json:"task_id"`
}

// Job is a point-in-time snapshot of a remote generation job.
type Job struct {
	TaskID          string    `json:"task_id"`
	Status          JobStatus `json:"status"`
	RawStatus       string    `json:"raw_status,omitempty"`
	ProgressPercent int       `json:"progress_percent"`
	OutputLocator   string    `json:"output_locator,omitempty"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	CreatedAt       string    `json:"created_at,omitempty"`
	FailureMessage  string    `json:"failure_message,omitempty"`
}

// SubmitRequest is a text-to-model generation request.
type SubmitRequest struct {
	Prompt         string `json:"prompt"`
	Format         string `json:"format,omitempty"`
	Quality        string `json:"quality,omitempty"`
	Seed           *int   `json:"seed,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
}

// Closed parameter enumerations. Requests carrying values outside these sets
// are rejected before any network call.
var (
	ValidFormats   = []string{"glb", "usdz", "obj", "fbx", "stl"}
	ValidQualities = []string{"low", "medium", "high", "ultra"}
)

const (
	minPromptLen = 3
	maxPromptLen = 1000
	maxSeed      = 1<<31 - 1
)

// Validate checks the request against the closed parameter enumerations.
// Empty format/quality are filled with the service defaults.
func (r *SubmitRequest) Validate() *types.Error {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if r.Prompt == "" {
		return types.NewError(types.ErrValidation, "prompt is required")
	}
	if len(r.Prompt) < minPromptLen {
		return types.NewError(types.ErrValidation, "prompt must be at least 3 characters long")
	}
	if len(r.Prompt) > maxPromptLen {
		return types.NewError(types.ErrValidation, "prompt must be no more than 1000 characters")
	}

	if r.Format == "" {
		r.Format = "glb"
	}
	r.Format = strings.ToLower(strings.TrimSpace(r.Format))
	if !contains(ValidFormats, r.Format) {
		return types.NewError(types.ErrValidation,
			"invalid format, must be one of: "+strings.Join(ValidFormats, ", "))
	}

	if r.Quality == "" {
		r.Quality = "high"
	}
	r.Quality = strings.ToLower(strings.TrimSpace(r.Quality))
	if !contains(ValidQualities, r.Quality) {
		return types.NewError(types.ErrValidation,
			"invalid quality, must be one of: "+strings.Join(ValidQualities, ", "))
	}

	if r.Seed != nil && (*r.Seed < 0 || *r.Seed > maxSeed) {
		return types.NewError(types.ErrValidation, "seed out of range")
	}

	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
