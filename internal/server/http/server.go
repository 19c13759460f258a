package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/metrics"
	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/runtime"
	auditsvc "github.com/TheshibaBull/lifebook-health-story-sub002/internal/services/audit"
	syncsvc "github.com/TheshibaBull/lifebook-health-story-sub002/internal/services/sync"
	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/writequeue"
)

// Deps are the wired services the server fronts.
type Deps struct {
	Runtime *runtime.Runtime
	Queue   *writequeue.Queue
	Sync    *syncsvc.Coordinator
	Audit   *auditsvc.Service
}

type Server struct {
	deps Deps
	srv  *http.Server
	lis  net.Listener
}

func New(deps Deps) *Server {
	mux := http.NewServeMux()
	s := &Server{deps: deps, srv: &http.Server{Handler: cors(mux)}}
	mux.HandleFunc("/v1/healthz", s.handleHealth)
	mux.HandleFunc("/v1/queue/enqueue", s.handleEnqueue)
	mux.HandleFunc("/v1/queue/pending", s.handlePending)
	mux.HandleFunc("/v1/queue/flush", s.handleFlush)
	mux.HandleFunc("/v1/audit/log", s.handleAuditLog)
	mux.HandleFunc("/v1/audit/logs", s.handleAuditLogs)
	mux.HandleFunc("/v1/audit/export", s.handleAuditExport)
	mux.Handle("/metrics", metrics.Handler())
	return s
}

// Handler exposes the full handler chain for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Runtime.CheckHealth(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_serving"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type enqueueReq struct {
	Kind   string          `json:"kind"`
	Record string          `json:"record,omitempty"`
	Body   json.RawMessage `json:"body,omitempty"`
}

type enqueueResp struct {
	Seq      uint64 `json:"seq"`
	Degraded bool   `json:"degraded,omitempty"`
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req enqueueReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if req.Kind == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "kind is required"})
		return
	}
	m := writequeue.Mutation{Kind: req.Kind, Record: req.Record, Body: req.Body}
	seq, err := s.deps.Queue.Enqueue(r.Context(), m)
	degraded := false
	if err != nil {
		// Degraded enqueues are accepted: the mutation is retained in memory
		// and still flushes this session.
		if !errors.Is(err, writequeue.ErrDegraded) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		degraded = true
	}
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(enqueueResp{Seq: seq, Degraded: degraded})
}

type pendingResp struct {
	Pending int                   `json:"pending"`
	Items   []writequeue.Mutation `json:"items,omitempty"`
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp := pendingResp{Pending: s.deps.Queue.PendingCount()}
	if r.URL.Query().Get("items") == "true" {
		for _, it := range s.deps.Queue.Snapshot() {
			resp.Items = append(resp.Items, it.Mutation)
		}
	}
	_ = json.NewEncoder(w).Encode(resp)
}

type flushResp struct {
	Applied   int    `json:"applied"`
	Remaining int    `json:"remaining"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.deps.Sync.CanFlush() {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "flush unavailable"})
		return
	}
	out := s.deps.Sync.Flush(r.Context())
	resp := flushResp{Applied: out.Applied, Remaining: out.Remaining}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	_ = json.NewEncoder(w).Encode(resp)
}

type auditLogReq struct {
	UserID   string                 `json:"user_id"`
	Action   string                 `json:"action"`
	Resource string                 `json:"resource"`
	Risk     string                 `json:"risk"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req auditLogReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.deps.Audit.Log(r.Context(), req.UserID, req.Action, req.Resource, req.Details, auditsvc.ParseRisk(req.Risk))
	w.WriteHeader(http.StatusAccepted)
}

func auditQueryFromURL(r *http.Request) auditsvc.Query {
	q := auditsvc.Query{
		UserID: r.URL.Query().Get("user_id"),
		Filter: r.URL.Query().Get("filter"),
	}
	if v := r.URL.Query().Get("start_ms"); v != "" {
		q.StartMs, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := r.URL.Query().Get("end_ms"); v != "" {
		q.EndMs, _ = strconv.ParseInt(v, 10, 64)
	}
	return q
}

func (s *Server) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	entries, err := s.deps.Audit.Logs(auditQueryFromURL(r))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"entries": entries})
}

func (s *Server) handleAuditExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	data, err := s.deps.Audit.Export(auditQueryFromURL(r))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-export.json")
	_, _ = w.Write(data)
}
