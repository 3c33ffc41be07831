// Standalone fake sensor board that posts samples to a running SensorBoard.
//
// Usage:
//
//	go run ./cmd/sensorboard serve -c example/config.yaml
//
// Then in another terminal:
//
//	go run ./example/cmd/mockboard -url http://localhost:5000/update
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type sample struct {
	AX  float64 `json:"ax"`
	AY  float64 `json:"ay"`
	AZ  float64 `json:"az"`
	EMG float64 `json:"emg"`
}

func main() {
	url := flag.String("url", "http://localhost:5000/update", "SensorBoard update URL")
	interval := flag.Duration("interval", 100*time.Millisecond, "time between samples")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 2 * time.Second}

	fmt.Printf("Posting samples to %s every %s\n", *url, *interval)
	fmt.Println("Press Ctrl+C to stop")

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	var sent, failed int
	for {
		select {
		case <-ctx.Done():
			logger.Info("mock board stopped", "sent", sent, "failed", failed)
			return
		case <-ticker.C:
			if err := post(ctx, client, *url, randomSample()); err != nil {
				failed++
				logger.Warn("post failed", "error", err)
				continue
			}
			sent++
		}
	}
}

func randomSample() sample {
	return sample{
		AX:  rand.Float64()*4 - 2,
		AY:  rand.Float64()*4 - 2,
		AZ:  9.81 + rand.Float64()*0.4 - 0.2,
		EMG: rand.Float64(),
	}
}

func post(ctx context.Context, client *http.Client, url string, s sample) error {
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
