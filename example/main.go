package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/jpalmerr/sensorboard"
)

func main() {
	// start mock device (see mock_device.go)
	go StartMockDevice(":9999")
	time.Sleep(100 * time.Millisecond)

	dec, err := sensorboard.FieldDecoder(map[string]string{
		"ax": "accel.x",
		"ay": "accel.y",
		"az": "accel.z",
	})
	if err != nil {
		slog.Error("failed to create decoder", "error", err)
		os.Exit(1)
	}

	device, err := sensorboard.NewDevice("mock-esp32", "http://localhost:9999/sensor",
		sensorboard.WithDecoder(dec),
		sensorboard.WithDeviceInterval(250*time.Millisecond),
	)
	if err != nil {
		slog.Error("failed to create device", "error", err)
		os.Exit(1)
	}

	var count atomic.Int64
	sb, err := sensorboard.New(
		sensorboard.WithTitle("Acelerómetro ESP32"),
		sensorboard.WithMode(sensorboard.ModeAppend),
		sensorboard.WithHistoryLimit(2000),
		sensorboard.WithPush(true),
		sensorboard.WithReport(true),
		sensorboard.WithDevice(device),
		sensorboard.WithPort(5000),
		sensorboard.WithSampleCallback(func(s sensorboard.Sample) {
			// callbacks run on ingesting goroutines, concurrently, and must not block
			if n := count.Add(1); n%40 == 0 {
				slog.Info("samples received", "count", n, "az", s.AZ)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create sensorboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  SensorBoard demo")
	fmt.Println()
	fmt.Println("  Dashboard:  http://localhost:5000")
	fmt.Println("  Report:     http://localhost:5000/download-pdf")
	fmt.Println("  Post data:  curl -d '{\"ax\":1,\"ay\":2,\"az\":3}' http://localhost:5000/update")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := sb.Start(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
