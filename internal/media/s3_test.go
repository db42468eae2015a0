// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
)

// pngHeader is the 8-byte PNG signature followed by an IHDR chunk start.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeObjectAPI struct {
	puts    map[string][]byte
	types   map[string]string
	deleted []string
}

func newFakeObjectAPI() *fakeObjectAPI {
	return &fakeObjectAPI{puts: map[string][]byte{}, types: map[string]string{}}
}

func (api *fakeObjectAPI) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	api.puts[*params.Key] = body
	api.types[*params.Key] = *params.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (api *fakeObjectAPI) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	api.deleted = append(api.deleted, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func newTestUploader(api objectAPI) *S3Uploader {
	uploader := newS3Uploader(api, S3Config{
		Bucket:        "vidtube-media",
		PublicBaseURL: "https://cdn.vidtube.app/",
		MaxBytes:      1 << 20,
	})
	uploader.now = func() time.Time { return time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC) }
	return uploader
}

func TestUpload_StoresImageUnderDatedKey(t *testing.T) {
	api := newFakeObjectAPI()
	uploader := newTestUploader(api)

	url, err := uploader.Upload(context.Background(), Object{
		Prefix: "avatars",
		Size:   int64(len(pngHeader)),
		Body:   bytes.NewReader(pngHeader),
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^https://cdn\.vidtube\.app/avatars/2026/03/07/[0-9a-f-]{36}\.png$`), url)

	require.Len(t, api.puts, 1)
	for key, body := range api.puts {
		assert.Equal(t, pngHeader, body, "sniffing must not consume the body")
		assert.Equal(t, "image/png", api.types[key])
	}
}

func TestUpload_RejectsNonImage(t *testing.T) {
	uploader := newTestUploader(newFakeObjectAPI())

	_, err := uploader.Upload(context.Background(), Object{
		Prefix: "avatars",
		Body:   bytes.NewReader([]byte("#!/bin/sh\necho pwned\n")),
	})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestUpload_RejectsOversized(t *testing.T) {
	uploader := newTestUploader(newFakeObjectAPI())

	_, err := uploader.Upload(context.Background(), Object{
		Prefix: "covers",
		Size:   2 << 20,
		Body:   bytes.NewReader(pngHeader),
	})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestUpload_RejectsEmpty(t *testing.T) {
	uploader := newTestUploader(newFakeObjectAPI())

	_, err := uploader.Upload(context.Background(), Object{Prefix: "covers", Body: bytes.NewReader(nil)})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestDelete(t *testing.T) {
	api := newFakeObjectAPI()
	uploader := newTestUploader(api)

	require.NoError(t, uploader.Delete(context.Background(), "https://cdn.vidtube.app/avatars/2026/03/07/x.png"))
	assert.Equal(t, []string{"avatars/2026/03/07/x.png"}, api.deleted)

	assert.Error(t, uploader.Delete(context.Background(), "https://elsewhere.example/x.png"))
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "http://minio:9000/media", publicBaseURL(S3Config{Bucket: "media", Endpoint: "http://minio:9000/"}))
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com", publicBaseURL(S3Config{Bucket: "media", Region: "eu-west-1"}))
}
