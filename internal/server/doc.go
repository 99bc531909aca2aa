// Copyright (c) 3D AR Generator Authors.
// Licensed under the MIT License.

/*
Package server provides HTTP server lifecycle management: non-blocking
start, graceful shutdown, and system signal handling.

Manager wraps net/http.Server and owns the listener, the serve goroutine,
and an asynchronous error channel. WaitForShutdown blocks on SIGINT/SIGTERM
or a serve error and then drains in-flight requests within the configured
shutdown timeout. The default write timeout is sized above the generation
poll timeout because generation requests hold their connection until the
remote job finishes.
*/
package server
