// Package store provides the shared sample store and pub/sub fan-out.
//
// This package is internal to SensorBoard. It owns the sensor state that
// every request handler reads and writes, and it implements a
// publish-subscribe pattern so push clients (WebSocket, SSE) see each sample
// as soon as it is committed.
//
// The main components are:
//
//   - [Sample]: a flat accelerometer/EMG reading
//   - [Store]: interface defining ingest, read, and subscription operations
//   - [MemoryStore]: in-memory implementation operating in [ModeReplace] or [ModeAppend]
//
// Subscribers receive updates via buffered channels with non-blocking sends:
// a slow subscriber misses updates rather than blocking ingest.
//
// State is process-scoped. Restarting the process resets the store to its
// zero record.
package store
