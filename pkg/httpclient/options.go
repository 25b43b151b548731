package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
)

// MultipartPart is one named field of a multipart body. A part with FilePath carries the file's content,
// otherwise Contents is sent as a plain text field.
type MultipartPart struct {
	Name     string
	Contents string
	FilePath string
}

// RequestOptions carries the per-call parts of a request. Empty fields are not sent.
type RequestOptions struct {
	Query      map[string]string
	FormParams map[string]string
	JSON       any
	Multipart  []MultipartPart
	Headers    map[string]string

	// BaseURI overrides the configured base URI for this call.
	BaseURI string
}

// apply copies the options onto req. JSON bodies are always encoded here so strings and scalars go out
// as JSON values. Multipart parts are written in slice order.
func (o RequestOptions) apply(req *resty.Request) error {
	if len(o.Headers) > 0 {
		req.SetHeaders(o.Headers)
	}
	if len(o.Query) > 0 {
		req.SetQueryParams(o.Query)
	}
	if len(o.FormParams) > 0 {
		req.SetFormData(o.FormParams)
	}
	if o.JSON != nil {
		body, err := json.Marshal(o.JSON)
		if err != nil {
			return fmt.Errorf("encode json body: %w", err)
		}
		req.SetHeader("Content-Type", "application/json")
		req.SetBody(body)
	}
	if len(o.Multipart) > 0 {
		fields, err := multipartFields(o.Multipart)
		if err != nil {
			return err
		}
		req.SetMultipartFields(fields...)
	}
	return nil
}

func multipartFields(parts []MultipartPart) ([]*resty.MultipartField, error) {
	fields := make([]*resty.MultipartField, 0, len(parts))
	for _, part := range parts {
		if part.FilePath == "" {
			fields = append(fields, &resty.MultipartField{
				Param:  part.Name,
				Reader: strings.NewReader(part.Contents),
			})
			continue
		}
		data, err := os.ReadFile(part.FilePath)
		if err != nil {
			return nil, fmt.Errorf("multipart part %q: %w", part.Name, err)
		}
		fields = append(fields, &resty.MultipartField{
			Param:       part.Name,
			FileName:    filepath.Base(part.FilePath),
			ContentType: http.DetectContentType(data),
			Reader:      bytes.NewReader(data),
		})
	}
	return fields, nil
}
