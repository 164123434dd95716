// Package storage archives dispatched PDFs in an S3-compatible bucket so
// staff can download exactly what was sent for signature.
package storage

import (
	"context"
	"path"
	"strconv"
	"time"
)

// PDFContentType is the content type of every archived document.
const PDFContentType = "application/pdf"

// Object metadata keys. MinIO stores them as X-Amz-Meta-* headers.
const (
	metaStudentCode = "student-code"
	metaTemplateID  = "template-id"
)

// Document is a rendered PDF about to be archived.
type Document struct {
	DispatchID  string
	StudentCode int64
	TemplateID  string
	Data        []byte
}

// Archive stores dispatched PDFs and hands out download links for them.
type Archive interface {
	// Store uploads doc and returns its object key.
	Store(ctx context.Context, doc Document) (string, error)
	// DownloadURL returns a presigned GET link for key, valid for expiry.
	DownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// DispatchKey is the object key of the PDF archived for a dispatch.
func DispatchKey(dispatchID string) string {
	return path.Join("dispatches", dispatchID+".pdf")
}

func metadata(doc Document) map[string]string {
	m := map[string]string{metaStudentCode: strconv.FormatInt(doc.StudentCode, 10)}
	if doc.TemplateID != "" {
		m[metaTemplateID] = doc.TemplateID
	}
	return m
}
