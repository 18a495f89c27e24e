// Package report converts HTML documents to PDF through a Gotenberg instance.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Document is an HTML page plus optional print decorations. Footer and
// Header must be complete HTML documents; Chromium fills elements with the
// classes pageNumber and totalPages.
type Document struct {
	Index     string
	Header    string
	Footer    string
	Landscape bool
}

// Client wraps interactions with the Gotenberg API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Ping checks if the remote Gotenberg service is available.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderHTML converts raw HTML into a PDF document.
func (c *Client) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	return c.Render(ctx, Document{Index: html})
}

// Render converts doc into a PDF.
func (c *Client) Render(ctx context.Context, doc Document) ([]byte, error) {
	if strings.TrimSpace(doc.Index) == "" {
		return nil, fmt.Errorf("report: empty document")
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	files := []struct{ name, content string }{
		{"index.html", doc.Index},
		{"header.html", doc.Header},
		{"footer.html", doc.Footer},
	}
	for _, f := range files {
		if f.content == "" {
			continue
		}
		part, err := writer.CreateFormFile("files", f.name)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(part, f.content); err != nil {
			return nil, err
		}
	}
	if doc.Landscape {
		if err := writer.WriteField("landscape", "true"); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("render failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return io.ReadAll(resp.Body)
}
