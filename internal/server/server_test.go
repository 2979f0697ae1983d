package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/englishaccelerators/language-creator/internal/export"
	"github.com/englishaccelerators/language-creator/internal/sqlite"
	"github.com/englishaccelerators/language-creator/internal/upload"
	"github.com/englishaccelerators/language-creator/pkg/types"
)

type fakeStore struct {
	mu   sync.Mutex
	reqs []types.UpsertRequest
	err  error
}

func (f *fakeStore) UpsertText(_ context.Context, req types.UpsertRequest) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.reqs = append(f.reqs, req)
	n := 0
	for _, r := range req.Rows {
		if r.IdentifierCode != "" {
			n++
		}
	}
	return n, nil
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, UpsertPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUpsertSaves(t *testing.T) {
	store := &fakeStore{}
	h := New(store, Options{}).Handler()

	rec := post(t, h, `{"language":"en","tenant":null,"reason":"animals","rows":[
		{"identifiercode":"cat","output_value":"cat","status":"active"},
		{"identifiercode":"","output_value":"skip","status":"active"}]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"saved":1}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	require.Len(t, store.reqs, 1)
	assert.Nil(t, store.reqs[0].Tenant)
	assert.Equal(t, "animals", store.reqs[0].Reason)
}

func TestUpsertEmptyRowsSavesZero(t *testing.T) {
	h := New(&fakeStore{}, Options{}).Handler()
	rec := post(t, h, `{"language":"en","reason":"animals","rows":[]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"saved":0}`, rec.Body.String())
}

func TestUpsertBadPayload(t *testing.T) {
	cases := map[string]string{
		"not json":       `{`,
		"missing lang":   `{"reason":"r","rows":[]}`,
		"missing reason": `{"language":"en","rows":[]}`,
		"missing rows":   `{"language":"en","reason":"r"}`,
		"null rows":      `{"language":"en","reason":"r","rows":null}`,
		"rows not array": `{"language":"en","reason":"r","rows":{}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			store := &fakeStore{}
			rec := post(t, New(store, Options{}).Handler(), body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"ok":false,"error":"Bad payload"}`, rec.Body.String())
			assert.Empty(t, store.reqs)
		})
	}
}

func TestUpsertBodyLimit(t *testing.T) {
	h := New(&fakeStore{}, Options{MaxBodyBytes: 64}).Handler()
	body := `{"language":"en","reason":"r","rows":[{"identifiercode":"` + strings.Repeat("x", 100) + `"}]}`
	rec := post(t, h, body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Payload too large"}`, rec.Body.String())
}

func TestUpsertStoreFailure(t *testing.T) {
	h := New(&fakeStore{err: errors.New("disk full")}, Options{}).Handler()
	rec := post(t, h, `{"language":"en","reason":"r","rows":[]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"disk full"}`, rec.Body.String())
}

func TestOnlyPostIsRouted(t *testing.T) {
	h := New(&fakeStore{}, Options{}).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, UpsertPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, UpsertPath, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPipelineAgainstSQLiteServer(t *testing.T) {
	backend := sqlite.NewBackend()
	require.NoError(t, backend.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer backend.Detach()

	srv := httptest.NewServer(New(backend, Options{}).Handler())
	defer srv.Close()

	m := types.SeqModel{SeqKey: "w|e", Tokens: []string{"W", "E"}}
	blocks := []types.Block{{Block: 1, Rows: []types.Row{
		{TokenIndex: 0, Token: "W", Block: 1, Output: "cat"},
		{TokenIndex: 1, Token: "E", Block: 1, Output: "meow"},
		{TokenIndex: 1, Token: "E", Block: 1, Dec: types.DecPtr(2), Output: "purr"},
	}}}
	p := upload.New(upload.Options{
		API:       types.APIConfig{Base: srv.URL, Language: "en", Tenant: "kids-english"},
		Reason:    "animals",
		ChunkSize: 2,
		Lanes:     2,
		Timeout:   5 * time.Second,
	}, upload.NewQueue(backend), export.Dir{Path: t.TempDir()})

	res, err := p.Save(context.Background(), m, blocks)
	require.NoError(t, err)
	assert.Equal(t, upload.StateDone, res.State)
	assert.Equal(t, 2, res.Chunks)

	n, err := backend.CountText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	e, err := backend.GetText(context.Background(), "cat-E-2")
	require.NoError(t, err)
	assert.Equal(t, "purr", e.OutputValue)
	assert.Equal(t, "animals", e.Reason)
	require.NotNil(t, e.Tenant)
	assert.Equal(t, "kids-english", *e.Tenant)
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	addrc := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- New(&fakeStore{}, Options{}).ListenAndServe(ctx, "127.0.0.1:0", func(a net.Addr) {
			addrc <- a.String()
		})
	}()
	addr := <-addrc

	resp, err := http.Post("http://"+addr+UpsertPath, "application/json",
		strings.NewReader(`{"language":"en","reason":"r","rows":[]}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	assert.NoError(t, <-done)
}
