// Package server provides the HTTP server for the SensorBoard dashboard and API.
//
// This package is internal to SensorBoard and handles all HTTP concerns:
//
//   - Dashboard serving: embedded HTML at "/" and scripts under "/static/"
//   - Ingest: JSON samples posted to "/update"
//   - Reads: the latest sample or full history at "/data"
//   - Report: PDF download at "/download-pdf" (append mode, when enabled)
//   - Push: "nuevos_datos" events over WebSocket at "/ws" and SSE at "/api/sse"
//   - Operations: "/healthz" and Prometheus metrics at "/metrics"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests. It can serve the same routes on
// additional listeners, such as a public tunnel.
//
// Users of the sensorboard library should not need to interact with this
// package directly. The server is started automatically by
// [sensorboard.SensorBoard.Start].
package server
