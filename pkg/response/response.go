// Package response renders result frames as JSON, CSV or GeoJSON.
package response

import (
	"fmt"
	"net/http"
	"slices"

	pipelineerrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/frame"
)

const (
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatGeoJSON = "geojson"
)

// EmptyBody is returned with 204 when a query succeeds without rows.
const EmptyBody = "empty"

// GeometryColumn holds the GeoJSON geometry of spatial endpoints.
const GeometryColumn = "geometry"

const (
	contentTypeJSON    = "application/json"
	contentTypeCSV     = "text/csv; charset=utf-8"
	contentTypeGeoJSON = "application/geo+json"
	contentTypeText    = "text/plain; charset=utf-8"
)

type Options struct {
	Format     string
	NestInData bool
	Download   bool
	// Filename is the attachment name without extension.
	Filename string
	Spatial  bool
}

// Response is a rendered body. Filename is set when the body is an attachment.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
	Filename    string
}

// ContentDisposition returns the attachment header value, or "" for inline bodies.
func (r *Response) ContentDisposition() string {
	if r.Filename == "" {
		return ""
	}
	return fmt.Sprintf("attachment; filename=%q", r.Filename)
}

// Formats lists the formats an endpoint can render.
func Formats(spatial bool) []string {
	if spatial {
		return []string{FormatJSON, FormatCSV, FormatGeoJSON}
	}
	return []string{FormatJSON, FormatCSV}
}

// CheckFormat fails with UnknownFormat when format cannot be rendered.
func CheckFormat(format string, spatial bool) error {
	supported := Formats(spatial)
	if !slices.Contains(supported, format) {
		return pipelineerrors.UnknownFormat(format, supported)
	}
	return nil
}

// Empty is the response for a successful query without rows.
func Empty() *Response {
	return &Response{Status: http.StatusNoContent, ContentType: contentTypeText, Body: []byte(EmptyBody)}
}

// Build renders f according to opts.
func Build(f *frame.Frame, opts Options) (*Response, error) {
	if err := CheckFormat(opts.Format, opts.Spatial); err != nil {
		return nil, err
	}
	if f.Empty() {
		return Empty(), nil
	}

	var (
		body        []byte
		contentType string
		err         error
	)
	switch opts.Format {
	case FormatCSV:
		body, err = encodeCSV(f)
		contentType = contentTypeCSV
	case FormatGeoJSON:
		body, err = encodeGeoJSON(f)
		contentType = contentTypeGeoJSON
	default:
		body, err = encodeJSON(f, opts.NestInData)
		contentType = contentTypeJSON
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", opts.Format, err)
	}

	resp := &Response{Status: http.StatusOK, ContentType: contentType, Body: body}
	if opts.Format == FormatCSV || opts.Download {
		resp.Filename = opts.Filename + "." + opts.Format
	}
	return resp, nil
}
