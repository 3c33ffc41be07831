package sensorboard

import "github.com/jpalmerr/sensorboard/internal/store"

// Mode selects how ingested samples are kept.
type Mode string

const (
	// ModeReplace keeps only the latest sample. GET /data returns an object.
	ModeReplace Mode = "replace"

	// ModeAppend keeps every sample in arrival order. GET /data returns an
	// array and the PDF report becomes available.
	ModeAppend Mode = "append"
)

// String returns the mode name as used in configuration files.
func (m Mode) String() string {
	return string(m)
}

// Sample is one reading from the sensor board.
//
// EMG is nil when the board did not send an EMG channel.
type Sample struct {
	AX  float64
	AY  float64
	AZ  float64
	EMG *float64
}

func (s Sample) toStore() store.Sample {
	out := store.Sample{AX: s.AX, AY: s.AY, AZ: s.AZ}
	if s.EMG != nil {
		v := *s.EMG
		out.EMG = &v
	}
	return out
}

func sampleFromStore(s store.Sample) Sample {
	out := Sample{AX: s.AX, AY: s.AY, AZ: s.AZ}
	if s.EMG != nil {
		v := *s.EMG
		out.EMG = &v
	}
	return out
}
