package models

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// PDF content types accepted by the upload endpoint.
var pdfContentTypes = map[string]bool{
	"application/pdf":   true,
	"application/x-pdf": true,
}

// Document is an indexed document as listed by the backend.
type Document struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// FileBlob is a file selected for upload.
type FileBlob struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// Empty reports whether no file was provided.
func (f FileBlob) Empty() bool {
	return f.Body == nil || f.Name == ""
}

// IsPDF reports whether the blob looks like a PDF by extension or declared content type.
func (f FileBlob) IsPDF() bool {
	if strings.EqualFold(filepath.Ext(f.Name), ".pdf") {
		return true
	}
	return pdfContentTypes[strings.ToLower(f.ContentType)]
}

// UploadedFileRef records a file uploaded during the current session only.
// It is never persisted to history.
type UploadedFileRef struct {
	DisplayName      string
	OriginalFileName string
	SizeBytes        int64
}

// OpenFile opens path for upload. The caller closes the returned file.
func OpenFile(path string) (FileBlob, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileBlob{}, nil, fmt.Errorf("open file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return FileBlob{}, nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return FileBlob{}, nil, fmt.Errorf("open file: %s is a directory", path)
	}

	return FileBlob{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Body:        f,
	}, f, nil
}
