package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("load note: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("approve: %w", ErrStateConflict), http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrDuplicate, http.StatusConflict},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		require.Equal(t, tc.status, rr.Code, tc.err.Error())

		var body ProblemDetail
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Equal(t, tc.status, body.Status)
	}
}

func TestAttachmentHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	Attachment(rr, "text/csv", "report.csv", []byte("a,b\n"))
	require.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Header().Get("Content-Disposition"), `filename="report.csv"`)
	require.Equal(t, "4", rr.Header().Get("Content-Length"))
}
