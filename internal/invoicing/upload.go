package invoicing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/MrJamesThe3rd/fiore/internal/encoding"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// File is one multipart file part.
type File struct {
	Field   string
	Name    string
	Content io.Reader
}

// Upload posts f as multipart form data to path. Text documents are
// re-encoded to UTF-8 first since e-invoice XML often arrives as Windows-1252.
func (c *Client) Upload(ctx context.Context, path string, f File, req Request) (*Response, error) {
	data, err := io.ReadAll(f.Content)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	if isText(f.Name) {
		if data, err = encoding.ToUTF8(data, ""); err != nil {
			return nil, fmt.Errorf("normalizing %s: %w", f.Name, err)
		}
	}

	field := f.Field
	if field == "" {
		field = "file"
	}

	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(field), quoteEscaper.Replace(filepath.Base(f.Name))))
	header.Set("Content-Type", mimetype.Detect(data).String())

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}

	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req.Method = http.MethodPost
	req.Path = path
	req.Body = buf.Bytes()
	req.ContentType = w.FormDataContentType()

	return c.Do(ctx, req)
}

func isText(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xml", ".txt":
		return true
	}

	return false
}
