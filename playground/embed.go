// Package playground provides the embedded web UI for relay.
//
// The page lists users and messages, sends mutations through the REST API and
// shows live events from the SSE subscriptions. It is compiled into the
// binary, so relay deploys as a single file.
package playground

import "embed"

// Assets is an embedded filesystem containing the playground page.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Single page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
