package classifier

import (
	"testing"
	"time"
)

var testNow = time.Date(2024, 5, 10, 9, 30, 0, 0, time.Local)

func TestNormalizeVerdictFullObject(t *testing.T) {
	verdict, err := normalizeVerdict([]byte(`{"isCompliant":true,"confidence":0.92,"uniform_type":"Formal"}`), testNow)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if !verdict.IsCompliant {
		t.Fatal("expected compliant verdict")
	}
	if verdict.Confidence != 0.92 {
		t.Fatalf("unexpected confidence: %v", verdict.Confidence)
	}
	if verdict.UniformType != "Formal" {
		t.Fatalf("unexpected uniform type: %s", verdict.UniformType)
	}
	if verdict.Timestamp != "2024-05-10 09:30:00" {
		t.Fatalf("unexpected timestamp: %s", verdict.Timestamp)
	}
}

func TestNormalizeVerdictDefaultsMissingFields(t *testing.T) {
	verdict, err := normalizeVerdict([]byte(`{}`), testNow)
	if err != nil {
		t.Fatalf("missing optional fields must not fail: %v", err)
	}
	if verdict.IsCompliant {
		t.Fatal("isCompliant must default to false")
	}
	if verdict.Confidence != 0.0 {
		t.Fatalf("confidence must default to 0.0, got %v", verdict.Confidence)
	}
	if verdict.UniformType != UnknownUniformType {
		t.Fatalf("uniform type must default to %q, got %q", UnknownUniformType, verdict.UniformType)
	}
}

func TestNormalizeVerdictClampsConfidence(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{`{"confidence":1.7}`, 1},
		{`{"confidence":-0.3}`, 0},
		{`{"confidence":0.5}`, 0.5},
	}
	for _, tc := range cases {
		verdict, err := normalizeVerdict([]byte(tc.in), testNow)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tc.in, err)
		}
		if verdict.Confidence != tc.want {
			t.Fatalf("confidence for %s: want %v, got %v", tc.in, tc.want, verdict.Confidence)
		}
	}
}

func TestNormalizeVerdictRejectsNonJSON(t *testing.T) {
	if _, err := normalizeVerdict([]byte("Traceback (most recent call last): ..."), testNow); err == nil {
		t.Fatal("expected error for non-JSON output")
	}
}
