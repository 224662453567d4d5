package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/example/uniform-control/internal/acquire"
	"github.com/example/uniform-control/internal/classifier"
)

// ErrTransport marks a connectivity failure: the request never produced a
// usable server response. Callers must not update any local state on it.
var ErrTransport = errors.New("error al conectar con el modelo")

// Client speaks the detection API: multipart analyze posts, report download,
// session snapshot.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for the service at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Analyze sends one image payload and returns the server's verdict. A
// transport failure or a non-JSON reply maps to ErrTransport; a well-formed
// failure envelope surfaces its message.
func (c *Client) Analyze(ctx context.Context, payload acquire.Payload) (classifier.Verdict, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", payload.Filename)
	if err != nil {
		return classifier.Verdict{}, err
	}
	if _, err := part.Write(payload.Data); err != nil {
		return classifier.Verdict{}, err
	}
	if err := writer.Close(); err != nil {
		return classifier.Verdict{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze", body)
	if err != nil {
		return classifier.Verdict{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return classifier.Verdict{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifier.Verdict{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var envelope struct {
		Success     bool    `json:"success"`
		IsCompliant bool    `json:"isCompliant"`
		Confidence  float64 `json:"confidence"`
		UniformType string  `json:"uniform_type"`
		Timestamp   string  `json:"timestamp"`
		Error       string  `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return classifier.Verdict{}, fmt.Errorf("%w: respuesta ilegible (HTTP %d)", ErrTransport, resp.StatusCode)
	}

	if !envelope.Success {
		message := envelope.Error
		if message == "" {
			message = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return classifier.Verdict{}, errors.New(message)
	}

	return classifier.Verdict{
		IsCompliant: envelope.IsCompliant,
		Confidence:  envelope.Confidence,
		UniformType: envelope.UniformType,
		Timestamp:   envelope.Timestamp,
	}, nil
}

// Report downloads the plain-text session report.
func (c *Client) Report(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/api/report")
}

// Session fetches the raw session snapshot JSON.
func (c *Client) Session(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/api/session")
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrTransport, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
