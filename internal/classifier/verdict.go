package classifier

import (
	"encoding/json"
	"time"
)

// UnknownUniformType is the sentinel used when the model does not name a
// uniform class.
const UnknownUniformType = "Desconocido"

// TimestampLayout is the wall-clock format stamped on verdicts and shown to
// operators.
const TimestampLayout = "2006-01-02 15:04:05"

// Verdict is the compliance judgment for a single image. It is created once
// at the normalization boundary and never mutated afterwards.
type Verdict struct {
	IsCompliant bool    `json:"isCompliant"`
	Confidence  float64 `json:"confidence"`
	UniformType string  `json:"uniform_type"`
	Timestamp   string  `json:"timestamp"`
}

// rawVerdict mirrors the model's stdout object. Pointers distinguish absent
// fields from zero values so defaults are applied exactly once, here.
type rawVerdict struct {
	IsCompliant *bool    `json:"isCompliant"`
	Confidence  *float64 `json:"confidence"`
	UniformType *string  `json:"uniform_type"`
}

// normalizeVerdict parses one JSON object emitted by the model and fills in
// the documented defaults for missing optional fields. Malformed JSON is the
// only reason it can fail.
func normalizeVerdict(output []byte, now time.Time) (Verdict, error) {
	var raw rawVerdict
	if err := json.Unmarshal(output, &raw); err != nil {
		return Verdict{}, err
	}

	verdict := Verdict{
		IsCompliant: false,
		Confidence:  0.0,
		UniformType: UnknownUniformType,
		Timestamp:   now.Format(TimestampLayout),
	}
	if raw.IsCompliant != nil {
		verdict.IsCompliant = *raw.IsCompliant
	}
	if raw.Confidence != nil {
		verdict.Confidence = clampConfidence(*raw.Confidence)
	}
	if raw.UniformType != nil && *raw.UniformType != "" {
		verdict.UniformType = *raw.UniformType
	}
	return verdict, nil
}

func clampConfidence(value float64) float64 {
	switch {
	case value < 0:
		return 0
	case value > 1:
		return 1
	default:
		return value
	}
}
