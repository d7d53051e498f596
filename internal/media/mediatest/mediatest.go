// Package mediatest builds multipart uploads for tests.
package mediatest

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

// File is one part of a multipart body.
type File struct {
	Field    string
	Filename string
	Content  string
}

// Body encodes files and plain fields as multipart/form-data and returns the body
// with its content type.
func Body(t testing.TB, fields map[string]string, files ...File) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			t.Fatalf("create part %s: %v", f.Filename, err)
		}
		if _, err := part.Write([]byte(f.Content)); err != nil {
			t.Fatalf("write part %s: %v", f.Filename, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

// FileHeader returns a parsed upload for filename holding content.
func FileHeader(t testing.TB, filename, content string) *multipart.FileHeader {
	t.Helper()

	body, contentType := Body(t, nil, File{Field: "file", Filename: filename, Content: content})
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}
	return req.MultipartForm.File["file"][0]
}
