package client

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"ApniDukan/internal/upload"
)

type UploadSource struct {
	Name string
	Data io.Reader
}

// UploadFile stores one image and returns its absolute URL.
func (c *Client) UploadFile(ctx context.Context, name string, data io.Reader) (upload.File, error) {
	raw, ctype, err := multipartBody("file", []UploadSource{{Name: name, Data: data}})
	if err != nil {
		return upload.File{}, err
	}

	f, err := decode[upload.File](c.write(ctx, request{
		method:      http.MethodPost,
		path:        "/upload",
		raw:         raw,
		contentType: ctype,
		auth:        true,
	}))
	if err != nil {
		return upload.File{}, err
	}
	f.URL = c.absolute(f.URL)
	return f, nil
}

func (c *Client) UploadFiles(ctx context.Context, files []UploadSource) ([]upload.File, error) {
	raw, ctype, err := multipartBody("files", files)
	if err != nil {
		return nil, err
	}

	out, err := decode[struct {
		Files []upload.File `json:"files"`
	}](c.write(ctx, request{
		method:      http.MethodPost,
		path:        "/upload/multiple",
		raw:         raw,
		contentType: ctype,
		auth:        true,
	}))
	if err != nil {
		return nil, err
	}
	for i := range out.Files {
		out.Files[i].URL = c.absolute(out.Files[i].URL)
	}
	return out.Files, nil
}

func (c *Client) absolute(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.base + "/" + strings.TrimLeft(path, "/")
}

func multipartBody(field string, files []UploadSource) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile(field, f.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(fw, f.Data); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
