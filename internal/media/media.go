// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package media stores user-supplied images (avatars, cover images) in
S3-compatible object storage and hands back opaque public URLs.

Only image content types are accepted. The type is sniffed from the first
bytes of the body, never trusted from the client's multipart header.
*/
package media

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/pkg/uuid"
)

// sniffLength is the number of bytes http.DetectContentType inspects.
const sniffLength = 512

// allowedTypes maps accepted content types to the stored file extension.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Object is a single upload request.
type Object struct {
	// Prefix groups objects by purpose, e.g. "avatars".
	Prefix string
	Size   int64
	Body   io.Reader
}

// Uploader is the media reference resolver consumed by the account layer.
type Uploader interface {
	// Upload stores the object and returns its public URL.
	Upload(context context.Context, object Object) (string, error)

	// Delete removes a previously uploaded object by its public URL.
	Delete(context context.Context, url string) error
}

// sniff peeks at the body and returns the detected content type together
// with a reader that still yields the full body.
func sniff(body io.Reader) (string, io.Reader, error) {
	buffered := bufio.NewReaderSize(body, sniffLength)
	head, err := buffered.Peek(sniffLength)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", nil, fmt.Errorf("media: read failed: %w", err)
	}
	if len(head) == 0 {
		return "", nil, apperr.ValidationError("Uploaded file is empty")
	}
	return http.DetectContentType(head), buffered, nil
}

// objectKey lays keys out as <prefix>/<yyyy>/<mm>/<dd>/<uuid><ext>.
func objectKey(prefix string, at time.Time, extension string) string {
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s%s", prefix, at.Year(), at.Month(), at.Day(), uuid.New(), extension)
}

// # Multipart Helpers

// FromFileHeader opens a multipart file part as an [Object]. The caller must
// close the returned file once the upload finishes.
func FromFileHeader(header *multipart.FileHeader, prefix string) (Object, multipart.File, error) {
	file, err := header.Open()
	if err != nil {
		return Object{}, nil, apperr.ValidationError("Unable to read uploaded file")
	}
	return Object{Prefix: prefix, Size: header.Size, Body: file}, file, nil
}

// UploadFileHeader is a convenience wrapper that opens, uploads, and closes
// a multipart part in one call.
func UploadFileHeader(context context.Context, uploader Uploader, header *multipart.FileHeader, prefix string) (string, error) {
	object, file, err := FromFileHeader(header, prefix)
	if err != nil {
		return "", err
	}
	defer file.Close()

	return uploader.Upload(context, object)
}
