package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/debemdeboas/archive-console/internal/config"
	"github.com/debemdeboas/archive-console/internal/model"
)

// Upload is one file sent to the asset endpoints.
type Upload struct {
	Filename    string
	ContentType string
	Content     io.Reader

	Alt     string
	Caption string
	PostID  model.PostID
}

func (c *Client) UploadImage(ctx context.Context, u Upload) (model.Asset, error) {
	return c.upload(ctx, config.AssetUploadImagePath, u)
}

// UploadHTML stores an exported post page.
func (c *Client) UploadHTML(ctx context.Context, u Upload) (model.Asset, error) {
	if u.ContentType == "" {
		u.ContentType = config.CTypeHTML
	}
	return c.upload(ctx, config.AssetUploadHTMLPath, u)
}

func (c *Client) upload(ctx context.Context, path string, u Upload) (model.Asset, error) {
	if u.Content == nil || u.Filename == "" {
		return model.Asset{}, ErrMissingFile
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, u.Filename))
	if u.ContentType != "" {
		header.Set(config.HCType, u.ContentType)
	} else {
		header.Set(config.HCType, "application/octet-stream")
	}
	part, err := w.CreatePart(header)
	if err != nil {
		return model.Asset{}, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, u.Content); err != nil {
		return model.Asset{}, fmt.Errorf("write file part: %w", err)
	}

	fields := []struct{ name, value string }{
		{"alt", u.Alt},
		{"caption", u.Caption},
		{"post_id", string(u.PostID)},
	}
	for _, f := range fields {
		if f.name == "post_id" && f.value == "" {
			continue
		}
		if err := w.WriteField(f.name, f.value); err != nil {
			return model.Asset{}, fmt.Errorf("write field %s: %w", f.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return model.Asset{}, fmt.Errorf("close multipart body: %w", err)
	}

	var asset model.Asset
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        &buf,
		contentType: w.FormDataContentType(),
		auth:        true,
	}, &asset)
	return asset, err
}
