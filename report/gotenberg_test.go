package report

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderSendsIndexAndFooter(t *testing.T) {
	got := make(map[string]string)
	var landscape string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/chromium/convert/html" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, fh := range r.MultipartForm.File["files"] {
			f, _ := fh.Open()
			data, _ := io.ReadAll(f)
			_ = f.Close()
			got[fh.Filename] = string(data)
		}
		landscape = r.FormValue("landscape")
		_, _ = w.Write([]byte("%PDF"))
	}))
	defer srv.Close()

	pdf, err := NewClient(srv.URL+"/").Render(context.Background(), Document{
		Index:     "<html>body</html>",
		Footer:    "<html>footer</html>",
		Landscape: true,
	})
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(pdf))
	require.Equal(t, map[string]string{"index.html": "<html>body</html>", "footer.html": "<html>footer</html>"}, got)
	require.Equal(t, "true", landscape)
}

func TestRenderReportsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium crashed", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).RenderHTML(context.Background(), "<html></html>")
	require.ErrorContains(t, err, "503")
	require.ErrorContains(t, err, "chromium crashed")

	_, err = NewClient(srv.URL).Render(context.Background(), Document{})
	require.ErrorContains(t, err, "empty document")
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	require.NoError(t, NewClient(srv.URL).Ping(context.Background()))
	require.Error(t, NewClient(srv.URL+"/nope").Ping(context.Background()))
}
