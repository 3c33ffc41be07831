package sensorboard

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jpalmerr/sensorboard/internal/store"
)

// Decoder turns a polled device's response body into a [Sample].
//
// Decoders are called within a panic recovery boundary. A panicking decoder
// fails only that poll; the panic is logged with a correlation ID.
type Decoder func(body []byte) (Sample, error)

// JSONDecoder reads a body shaped like the /update payload:
// {"ax":1.5,"ay":-2,"az":9.8,"emg":0.3}. It is the default for devices.
var JSONDecoder Decoder = func(body []byte) (Sample, error) {
	s, err := store.ParseSample(body)
	if err != nil {
		return Sample{}, err
	}
	return sampleFromStore(s), nil
}

// sample fields accepted by FieldDecoder
var sampleFields = map[string]bool{"ax": true, "ay": true, "az": true, "emg": true}

// FieldDecoder returns a [Decoder] that reads sample fields from arbitrary
// positions in a JSON document, using dot notation to navigate nested objects.
//
// Keys of fields are sample field names (ax, ay, az, emg); values are paths.
// Unmapped axes read as zero and an unmapped emg stays absent. A mapped path
// that is missing or not a number fails the decode.
//
// Example:
//
//	// For response: {"accel": {"x": 0.1, "y": 0.2, "z": 9.8}}
//	dec, err := sensorboard.FieldDecoder(map[string]string{
//	    "ax": "accel.x", "ay": "accel.y", "az": "accel.z",
//	})
func FieldDecoder(fields map[string]string) (Decoder, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("field decoder needs at least one field")
	}

	paths := make(map[string][]string, len(fields))
	for field, path := range fields {
		if !sampleFields[field] {
			return nil, fmt.Errorf("unknown sample field %q (expected ax, ay, az or emg)", field)
		}
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("empty path for field %q", field)
		}
		paths[field] = strings.Split(path, ".")
	}

	// iterate in a fixed order so error messages are stable
	order := make([]string, 0, len(paths))
	for field := range paths {
		order = append(order, field)
	}
	sort.Strings(order)

	return func(body []byte) (Sample, error) {
		var data interface{}
		if err := json.Unmarshal(body, &data); err != nil {
			return Sample{}, fmt.Errorf("%w: %v", store.ErrInvalidSample, err)
		}

		var s Sample
		for _, field := range order {
			v, err := extractNumber(data, paths[field])
			if err != nil {
				return Sample{}, fmt.Errorf("%w: field %s: %v", store.ErrInvalidSample, field, err)
			}
			switch field {
			case "ax":
				s.AX = v
			case "ay":
				s.AY = v
			case "az":
				s.AZ = v
			case "emg":
				s.EMG = &v
			}
		}
		return s, nil
	}, nil
}

// extractNumber walks a JSON structure using dot notation parts and returns
// the number at the end of the path.
func extractNumber(data interface{}, parts []string) (float64, error) {
	current := data

	for _, part := range parts {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return 0, fmt.Errorf("%q is not inside an object", part)
		}
		current, ok = obj[part]
		if !ok {
			return 0, fmt.Errorf("missing key %q", part)
		}
	}

	v, ok := current.(float64)
	if !ok {
		return 0, fmt.Errorf("value at %q is not a number", strings.Join(parts, "."))
	}
	return v, nil
}
