package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidSample is returned by [ParseSample] when a body cannot be decoded
// into a [Sample].
var ErrInvalidSample = errors.New("invalid sample")

// Sample is a single accelerometer reading, optionally carrying an EMG value.
//
// Missing ax/ay/az fields decode as zero. EMG is a pointer so that a body
// without it round-trips without gaining an "emg" key.
type Sample struct {
	AX  float64  `json:"ax"`
	AY  float64  `json:"ay"`
	AZ  float64  `json:"az"`
	EMG *float64 `json:"emg,omitempty"`
}

// ZeroSample returns the record held by a store before any ingest.
// When withEMG is true the record carries emg: 0.
func ZeroSample(withEMG bool) Sample {
	if !withEMG {
		return Sample{}
	}
	emg := 0.0
	return Sample{EMG: &emg}
}

// ParseSample decodes a JSON object into a [Sample].
//
// Unknown fields are ignored. Bodies that are not a JSON object, or that hold
// non-numeric values for ax, ay, az or emg, wrap [ErrInvalidSample].
func ParseSample(data []byte) (Sample, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Sample{}, fmt.Errorf("%w: body must be a JSON object", ErrInvalidSample)
	}

	var s Sample
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrInvalidSample, err)
	}
	return s, nil
}

// Clone returns a copy of s that shares no memory with it.
func (s Sample) Clone() Sample {
	if s.EMG != nil {
		emg := *s.EMG
		s.EMG = &emg
	}
	return s
}

// Equal reports whether s and o hold the same values.
func (s Sample) Equal(o Sample) bool {
	if s.AX != o.AX || s.AY != o.AY || s.AZ != o.AZ {
		return false
	}
	if s.EMG == nil || o.EMG == nil {
		return s.EMG == nil && o.EMG == nil
	}
	return *s.EMG == *o.EMG
}
