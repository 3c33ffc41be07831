package main

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// StartMockDevice serves a fake accelerometer at addr/sensor. Readings
// follow a slow sine sweep with gravity on the z axis, nested the way many
// board firmwares report them.
func StartMockDevice(addr string) {
	start := time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("/sensor", func(w http.ResponseWriter, r *http.Request) {
		t := time.Since(start).Seconds()
		reading := map[string]any{
			"accel": map[string]float64{
				"x": round(math.Sin(t), 3),
				"y": round(math.Cos(t/2), 3),
				"z": round(9.81+0.2*math.Sin(3*t), 3),
			},
			"uptime_s": int(t),
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reading)
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		slog.Error("mock device error", "error", err)
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
