// Package dashboard provides the embedded web UI assets for SensorBoard.
//
// The embedded assets are served by the server package: index.html at "/"
// and everything else under "/static/".
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
//	assets/
//	  index.html - dashboard page; {{.Title}}, {{.Mode}}, {{.Push}} and
//	               {{.Report}} are substituted by the server
//	  app.js     - charts, sample table, and the push/poll client
//
//go:embed assets/*
var Assets embed.FS
