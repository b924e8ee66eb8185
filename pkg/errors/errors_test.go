package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineError_StatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *PipelineError
		code int
	}{
		{"invalid date", InvalidDate("date_from", "yesterday"), http.StatusBadRequest},
		{"invalid enum", InvalidEnum("commodity_grouping", "x", []string{"default"}), http.StatusBadRequest},
		{"invalid bool", InvalidBool("keep_zeros", "maybe"), http.StatusBadRequest},
		{"unknown format", UnknownFormat("xml", []string{"json", "csv"}), http.StatusBadRequest},
		{"missing credential", MissingCredential(), http.StatusBadRequest},
		{"rejected credential", RejectedCredential("/v1/kpler_trade"), http.StatusForbidden},
		{"incomplete", IncompleteDataset("counter data stops at 2024-01-01"), http.StatusNotFound},
		{"maintenance", MaintenanceMode(), http.StatusServiceUnavailable},
		{"sanity", SanityCheck("rows %d", 3), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.StatusCode())
			herr := ToHTTPError(tt.err)
			require.True(t, httperror.IsHTTPError(herr))
			assert.Equal(t, tt.code, httperror.GetStatusCode(herr))
		})
	}
}

func TestMissingCredential_Message(t *testing.T) {
	assert.Equal(t, "Please provide an API key", MissingCredential().Error())
}

func TestAs_Wrapped(t *testing.T) {
	err := fmt.Errorf("parse: %w", InvalidBool("download", "nope"))
	assert.True(t, IsKind(err, KindInvalidBool))
	assert.False(t, IsKind(err, KindInvalidDate))

	perr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "download", perr.Param)
}

func TestSanityCheck_HidesCause(t *testing.T) {
	err := SanityCheck("spread produced %d rows from %d", 3, 4)
	assert.Equal(t, "Internal Server Error", err.Error())
	assert.Contains(t, err.Unwrap().Error(), "spread produced 3 rows from 4")
}

func TestToHTTPError_PassesThroughOtherErrors(t *testing.T) {
	plain := fmt.Errorf("boom")
	assert.Equal(t, plain, ToHTTPError(plain))
}
