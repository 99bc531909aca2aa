// Copyright (c) 3D AR Generator Authors.
// Licensed under the MIT License.

/*
Package handlers implements the HTTP endpoints of the generation service.

Endpoints cover synchronous text-to-3D generation, the persisted model
collection, artifact download, format conversion acknowledgement, the local
credit balance, and health probes. All handlers follow standard net/http
signatures and share one JSON envelope.

Core types:

  - GenerateHandler — POST /api/generate, blocks until the remote job ends
  - ModelsHandler   — model listing, lookup, and artifact download
  - ConvertHandler  — conversion acknowledgement stub
  - CreditsHandler  — locally tracked credit balance
  - HealthHandler   — /health, /ready, /version with pluggable checks
  - Response        — unified JSON envelope (success + data + error + timestamp)
  - ResponseWriter  — wraps http.ResponseWriter to capture the status code
*/
package handlers
