// Copyright (c) 3D AR Generator Authors.
// Licensed under the MIT License.

/*
Package main provides the argen server executable.

cmd/argen is the entry point of the text-to-3D generation service. It loads
YAML configuration with ARGEN_* environment overrides, sets up structured
logging (zap), builds the generation pipeline (remote provider client,
polling controller, credit ledger, model record store), and serves both the
HTTP API and the MCP tool-call front door on one port.

Subcommands: serve, version, health.

The middleware chain is Recovery, RequestID, SecurityHeaders, RequestLogger,
MetricsMiddleware, and an optional per-IP RateLimiter. Prometheus metrics
are exposed on /metrics. Version, BuildTime, and GitCommit are injected via
ldflags.
*/
package main
