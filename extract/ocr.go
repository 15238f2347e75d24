package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// OCRClient extracts text from image and PDF attachments through an OCR
// sidecar service. The sidecar accepts a multipart upload on /extract and
// responds with {"text": "..."}.
type OCRClient struct {
	endpoint string
	store    FileStore
	client   *http.Client
	logger   *slog.Logger
}

var _ Extractor = (*OCRClient)(nil)

// NewOCRClient creates a client for the sidecar at endpoint, reading file
// bytes from store. A zero timeout defaults to 30 seconds.
func NewOCRClient(endpoint string, store FileStore, timeout time.Duration) *OCRClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OCRClient{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		store:    store,
		client:   &http.Client{Timeout: timeout},
		logger:   slog.Default().With("component", "ocr-client"),
	}
}

type ocrResponse struct {
	Text string `json:"text"`
}

func (c *OCRClient) Extract(ctx context.Context, path string) (string, error) {
	data, err := c.store.Read(path)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/extract", &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		c.logger.Warn("ocr sidecar rejected file",
			"path", path,
			"status", resp.StatusCode,
			"body", string(snippet))
		return "", fmt.Errorf("%w: sidecar returned status %d", ErrExtraction, resp.StatusCode)
	}

	var parsed ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decoding sidecar response: %v", ErrExtraction, err)
	}

	return strings.TrimSpace(parsed.Text), nil
}
