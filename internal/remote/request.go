package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
)

// Request describes one vendor call relative to the integration base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// JSON is marshaled as the request body when non-nil.
	JSON any
	// Form is sent as multipart/form-data when non-nil. JSON and Form are
	// mutually exclusive.
	Form   *Form
	Accept string
	// Resource identifies the addressed entity for NotFound errors.
	Resource string
}

// Form is a multipart/form-data body.
type Form struct {
	Fields []FormField
	Files  []FormFile
}

// FormField is a plain text multipart field.
type FormField struct {
	Name  string
	Value string
}

// FormFile is a file part of a multipart body.
type FormFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Response is a successful (2xx) vendor response with its body fully read.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r Request) body() (io.Reader, string, error) {
	switch {
	case r.JSON != nil && r.Form != nil:
		return nil, "", fmt.Errorf("request has both JSON and form bodies")
	case r.JSON != nil:
		data, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("marshaling request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	case r.Form != nil:
		return r.Form.encode()
	default:
		return http.NoBody, "", nil
	}
}

func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, fld := range f.Fields {
		if err := w.WriteField(fld.Name, fld.Value); err != nil {
			return nil, "", fmt.Errorf("writing form field %s: %w", fld.Name, err)
		}
	}

	for _, file := range f.Files {
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(
			`form-data; name=%q; filename=%q`, file.Field, file.Filename,
		))
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("creating form file %s: %w", file.Field, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("writing form file %s: %w", file.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
