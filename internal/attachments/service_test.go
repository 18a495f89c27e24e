package attachments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/commesse/internal/shared"
)

type memStorage struct {
	mu       sync.Mutex
	objects  map[string][]byte
	types    map[string]string
	failKeys map[string]bool
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, types: map[string]string{}, failKeys: map[string]bool{}}
}

func (m *memStorage) Upload(_ context.Context, in UploadInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failKeys[in.Key] {
		return errors.New("boom")
	}
	if _, ok := m.objects[in.Key]; ok && !in.Upsert {
		return fmt.Errorf("%w: %s", ErrObjectExists, in.Key)
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return err
	}
	m.objects[in.Key] = body
	m.types[in.Key] = in.ContentType
	return nil
}

func (m *memStorage) Remove(_ context.Context, keys []string) (BatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out BatchResult
	for _, k := range keys {
		if m.failKeys[k] {
			out.Add(k, errors.New("access denied"))
			continue
		}
		delete(m.objects, k)
		out.Add(k, nil)
	}
	return out, nil
}

func (m *memStorage) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://bucket.local/%s?ttl=%d", key, int(ttl.Seconds())), nil
}

var (
	tenant = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	owner  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	quiet  = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func TestAttachmentPath(t *testing.T) {
	key, err := AttachmentPath(tenant, "issued_invoices", owner, "../../etc/fattura 01.pdf")
	require.NoError(t, err)
	require.Equal(t, tenant.String()+"/issued_invoices/"+owner.String()+"/fattura 01.pdf", key)

	key, err = AttachmentPath(tenant, "expense_notes", owner, `C:\scans\scontrino.jpg`)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(key, "/scontrino.jpg"))

	for _, tc := range []struct {
		tenant, owner uuid.UUID
		kind, name    string
	}{
		{uuid.Nil, owner, "x", "a.pdf"},
		{tenant, uuid.Nil, "x", "a.pdf"},
		{tenant, owner, "", "a.pdf"},
		{tenant, owner, "a/b", "a.pdf"},
		{tenant, owner, "x", ""},
		{tenant, owner, "x", ".."},
	} {
		_, err := AttachmentPath(tc.tenant, tc.kind, tc.owner, tc.name)
		require.ErrorIs(t, err, shared.ErrValidation, "%+v", tc)
	}
}

func TestUploadAllContinuesPastFailures(t *testing.T) {
	store := newMemStorage()
	svc := NewService(store, time.Minute, quiet)
	bad, _ := AttachmentPath(tenant, "issued_invoices", owner, "broken.pdf")
	store.failKeys[bad] = true

	result := svc.UploadAll(context.Background(), tenant, []File{
		{Kind: "issued_invoices", OwnerID: owner, Filename: "ok.pdf", Body: strings.NewReader("pdf")},
		{Kind: "issued_invoices", OwnerID: owner, Filename: "broken.pdf", Body: strings.NewReader("pdf")},
		{Kind: "issued_invoices", OwnerID: owner, Filename: "", Body: strings.NewReader("x")},
		{Kind: "issued_invoices", OwnerID: owner, Filename: "notes.csv", ContentType: "text/csv", Body: strings.NewReader("a;b")},
	})
	require.Len(t, result.Items, 4)
	require.Len(t, result.Succeeded(), 2)
	require.Len(t, result.Failed(), 2)
	require.False(t, result.AllFailed())

	okKey := result.Items[0].Key
	require.Equal(t, "application/pdf", store.types[okKey])
	require.Equal(t, "text/csv", store.types[result.Items[3].Key])

	again := svc.UploadAll(context.Background(), tenant, []File{
		{Kind: "issued_invoices", OwnerID: owner, Filename: "ok.pdf", Body: strings.NewReader("v2")},
	})
	require.True(t, again.AllFailed())
	require.ErrorIs(t, again.Items[0].Err, ErrObjectExists)

	upsert := svc.UploadAll(context.Background(), tenant, []File{
		{Kind: "issued_invoices", OwnerID: owner, Filename: "ok.pdf", Body: strings.NewReader("v2"), Upsert: true},
	})
	require.Empty(t, upsert.Failed())
	require.Equal(t, "v2", string(store.objects[okKey]))
}

func TestRemoveRejectsForeignKeys(t *testing.T) {
	store := newMemStorage()
	svc := NewService(store, time.Minute, quiet)
	own, _ := AttachmentPath(tenant, "issued_invoices", owner, "a.pdf")
	denied, _ := AttachmentPath(tenant, "issued_invoices", owner, "b.pdf")
	store.failKeys[denied] = true
	foreign := uuid.NewString() + "/issued_invoices/x/a.pdf"

	result, err := svc.Remove(context.Background(), tenant, []string{foreign, own, denied, tenant.String() + "/../x"})
	require.NoError(t, err)
	require.Equal(t, []string{own}, result.Succeeded())
	require.Len(t, result.Failed(), 3)
	require.ErrorIs(t, result.Items[0].Err, shared.ErrForbidden)
}

func TestSignedURLUsesConfiguredTTL(t *testing.T) {
	svc := NewService(newMemStorage(), 15*time.Minute, quiet)
	key, _ := AttachmentPath(tenant, "expense_notes", owner, "r.jpg")
	url, err := svc.SignedURL(context.Background(), tenant, key)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(url, "?ttl=900"))

	_, err = svc.SignedURL(context.Background(), uuid.New(), key)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func passthrough(next http.Handler) http.Handler { return next }

func withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.ContextWithPrincipal(r.Context(), shared.Principal{UserID: owner, TenantID: tenant})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TestUploadHandlerReportsPartialFailure(t *testing.T) {
	store := newMemStorage()
	bad, _ := AttachmentPath(tenant, "issued_invoices", owner, "b.pdf")
	store.failKeys[bad] = true
	h := NewHandler(quiet, NewService(store, time.Minute, quiet))
	r := chi.NewRouter()
	r.Use(withPrincipal)
	r.Route("/attachments", func(r chi.Router) { h.MountRoutes(r, passthrough, passthrough) })

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range []string{"a.pdf", "b.pdf"} {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, _ = part.Write([]byte("%PDF"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/attachments/issued_invoices/"+owner.String(), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	require.Equal(t, http.StatusMultiStatus, res.Code)

	var payload batchResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	require.Equal(t, 1, payload.Failed)
	require.Len(t, payload.Items, 2)
	require.Empty(t, payload.Items[0].Error)
	require.Equal(t, "boom", payload.Items[1].Error)

	req = httptest.NewRequest(http.MethodGet, "/attachments/signed-url?key="+payload.Items[0].Key, nil)
	res = httptest.NewRecorder()
	r.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "bucket.local")
}
