// Package server is a small implementation of the remote upsert endpoint.
// It accepts the same chunks the upload pipeline sends and stores each row
// keyed by identifiercode, so the network path can be run end to end without
// the production backend.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/englishaccelerators/language-creator/pkg/types"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 20 << 20

// UpsertPath is the route served by Handler.
const UpsertPath = "/stage1/text:upsert"

// TextStore persists upserted rows.
type TextStore interface {
	UpsertText(ctx context.Context, req types.UpsertRequest) (int, error)
}

// Options tunes a Server. Zero values take the defaults.
type Options struct {
	MaxBodyBytes int64
}

// Server serves POST UpsertPath.
type Server struct {
	store   TextStore
	maxBody int64
}

// New returns a server writing to store.
func New(store TextStore, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Server{store: store, maxBody: opts.MaxBodyBytes}
}

// Handler returns the HTTP handler with permissive CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+UpsertPath, s.upsert)
	mux.HandleFunc("OPTIONS "+UpsertPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return cors(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. ready, when non-nil, receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	if ready != nil {
		ready(ln.Addr())
	}
	glog.Infof("[server] listening on %s", ln.Addr())

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	glog.Infof("[server] stopped")
	return nil
}

type payload struct {
	Language string             `json:"language"`
	Tenant   *string            `json:"tenant"`
	Reason   string             `json:"reason"`
	Rows     *[]types.UploadRow `json:"rows"`
}

type reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (s *Server) upsert(w http.ResponseWriter, r *http.Request) {
	id := requestID()
	w.Header().Set("X-Request-Id", id)

	var p payload
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	err := json.NewDecoder(body).Decode(&p)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		glog.Warningf("[server] %s: body over %d bytes", id, tooLarge.Limit)
		writeJSON(w, http.StatusRequestEntityTooLarge, reply{Error: "Payload too large"})
		return
	}
	if err != nil || p.Language == "" || p.Reason == "" || p.Rows == nil {
		glog.Warningf("[server] %s: bad payload: %v", id, err)
		writeJSON(w, http.StatusBadRequest, reply{Error: "Bad payload"})
		return
	}

	saved, err := s.store.UpsertText(r.Context(), types.UpsertRequest{
		Language: p.Language,
		Tenant:   p.Tenant,
		Reason:   p.Reason,
		Rows:     *p.Rows,
	})
	if err != nil {
		glog.Errorf("[server] %s: upsert: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, reply{Error: err.Error()})
		return
	}
	glog.V(1).Infof("[server] %s: reason=%s saved %d of %d rows", id, p.Reason, saved, len(*p.Rows))
	// saved is always present on success, even when zero.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(struct {
		OK    bool `json:"ok"`
		Saved int  `json:"saved"`
	}{true, saved})
}

func writeJSON(w http.ResponseWriter, status int, v reply) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func requestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
