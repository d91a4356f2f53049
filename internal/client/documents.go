package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/raphaelgruber/kbchat/internal/metrics"
	"github.com/raphaelgruber/kbchat/internal/models"
)

// UploadResult is the backend's acknowledgement of an indexed upload.
type UploadResult struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// Upload sends a PDF to be indexed under title.
func (c *Client) Upload(ctx context.Context, file models.FileBlob, title string) (*UploadResult, error) {
	if file.Empty() {
		return nil, fmt.Errorf("upload: %w: file is required", ErrValidation)
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("upload: %w: title is required", ErrValidation)
	}
	if !file.IsPDF() {
		return nil, fmt.Errorf("upload: %w: %s is not a PDF", ErrValidation, file.Name)
	}

	body, contentType, err := multipartBody(file, title)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	var result UploadResult
	err = c.do(ctx, request{
		op:          metrics.OpUpload,
		method:      http.MethodPost,
		path:        "/api/upload",
		body:        body,
		contentType: contentType,
		auth:        true,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	return &result, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// escapeQuotes escapes a multipart header parameter the way mime/multipart does.
func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// multipartBody encodes the title field and the file part, in that order.
func multipartBody(file models.FileBlob, title string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("title", title); err != nil {
		return nil, "", fmt.Errorf("write title field: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Name)))
	header.Set("Content-Type", "application/pdf")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, file.Body); err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// ListDocuments returns the documents indexed on the backend.
func (c *Client) ListDocuments(ctx context.Context) ([]models.Document, error) {
	var docs []models.Document
	err := c.do(ctx, request{
		op:     metrics.OpDocuments,
		method: http.MethodGet,
		path:   "/api/documents",
	}, &docs)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// GetDocument returns one document by ID.
func (c *Client) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("get document: %w: id is required", ErrValidation)
	}

	var doc models.Document
	err := c.do(ctx, request{
		op:     metrics.OpDocuments,
		method: http.MethodGet,
		path:   "/api/documents/" + url.PathEscape(id),
	}, &doc)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("get document: %w", malformed(metrics.OpDocuments, "missing id"))
	}
	return &doc, nil
}
