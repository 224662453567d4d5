package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/uniform-control/internal/acquire"
)

func testPayload() acquire.Payload {
	return acquire.Payload{Data: []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3}, Filename: "foto.jpg"}
}

func TestAnalyzeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/analyze" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("image field missing: %v", err)
		}
		file.Close()
		if header.Filename != "foto.jpg" {
			t.Fatalf("unexpected filename: %s", header.Filename)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":      true,
			"isCompliant":  true,
			"confidence":   0.92,
			"uniform_type": "Formal",
			"timestamp":    "2024-05-10 09:30:00",
		})
	}))
	defer server.Close()

	verdict, err := New(server.URL, time.Second).Analyze(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if !verdict.IsCompliant || verdict.Confidence != 0.92 || verdict.UniformType != "Formal" {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
}

func TestAnalyzeFailureEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Tipo de archivo no permitido"})
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second).Analyze(context.Background(), testPayload())
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Tipo de archivo no permitido" {
		t.Fatalf("server message must surface verbatim, got %q", err.Error())
	}
	if errors.Is(err, ErrTransport) {
		t.Fatal("a well-formed failure envelope is not a transport error")
	}
}

func TestAnalyzeTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	_, err := New(server.URL, time.Second).Analyze(context.Background(), testPayload())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestAnalyzeNonJSONReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second).Analyze(context.Background(), testPayload())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport for unreadable reply, got %v", err)
	}
}

func TestReportDownload(t *testing.T) {
	const report = "REPORTE DE CONTROL DE UNIFORMES"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/report" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(report))
	}))
	defer server.Close()

	text, err := New(server.URL, time.Second).Report(context.Background())
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if string(text) != report {
		t.Fatalf("unexpected report: %q", text)
	}
}
