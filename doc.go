// Package sensorboard relays accelerometer and EMG readings from a sensor
// board to browsers.
//
// A board posts samples to POST /update, or serves them for polling as a
// [Device]. Viewers read them back through GET /data, a WebSocket or
// Server-Sent Events push channel, and a PDF report.
//
// # Quick Start
//
//	sb, _ := sensorboard.New(
//	    sensorboard.WithMode(sensorboard.ModeAppend),
//	    sensorboard.WithPush(true),
//	    sensorboard.WithReport(true),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	sb.Start(ctx) // blocks until context is cancelled
//
// # Modes
//
// In [ModeReplace] the board keeps one sample and GET /data returns it as an
// object. In [ModeAppend] it keeps every sample in arrival order, GET /data
// returns an array, and GET /download-pdf renders the history as a table.
// [WithHistoryLimit] bounds an append-mode history.
//
// # Devices
//
// Boards that cannot post can be polled instead:
//
//	dec, _ := sensorboard.FieldDecoder(map[string]string{
//	    "ax": "accel.x", "ay": "accel.y", "az": "accel.z",
//	})
//	dev, _ := sensorboard.NewDevice("esp32", "http://192.168.1.40/sensor",
//	    sensorboard.WithDecoder(dec),
//	)
//	sb, _ := sensorboard.New(sensorboard.WithDevice(dev))
//
// # Architecture
//
//   - internal/store: shared sample store with pub/sub for push channels
//   - internal/server: HTTP API, push channels, and dashboard
//   - internal/report: PDF rendering
//   - internal/poller: device polling with a worker pool
//   - internal/tunnel: public ngrok endpoint
//   - internal/metrics: Prometheus collectors
//   - dashboard: embedded web UI assets
package sensorboard
