// Package poller pulls sensor samples from device HTTP endpoints.
//
// This package is internal to SensorBoard. Devices that expose their latest
// reading over HTTP (an ESP32 serving JSON, for example) are fetched at a
// fixed interval by a worker pool with a concurrency limit, and each decoded
// sample is emitted on a results channel for the caller to ingest.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with timeout and size limits
//   - [Scheduler]: manages periodic fetching with a worker pool
//   - [Result]: outcome of fetching a single device
//   - [Device]: configuration for a device to poll
//
// There is no retry policy: a failed fetch is reported and the device is
// tried again on its next tick.
package poller
