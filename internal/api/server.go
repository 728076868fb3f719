package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"thread-worker/internal/events"
	"thread-worker/internal/job"
	"thread-worker/internal/logger"
	"thread-worker/internal/metrics"
	"thread-worker/internal/pool"
	"thread-worker/internal/worker"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/websocket"
)

const scope = "api"

// RunStatus は実行の状態
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// run はサーバーが起動した1回のプール実行
type run struct {
	id        uuid.UUID
	pool      *pool.Pool
	jobs      int
	startedAt time.Time

	status RunStatus
	report *pool.Report
	err    error
}

// Server は API サーバー
type Server struct {
	addr        string
	defaults    pool.Config
	defaultJobs int

	registry   *prometheus.Registry
	collectors *metrics.Collectors
	bus        *events.Bus

	mu        sync.RWMutex
	runs      map[uuid.UUID]*run
	active    *run
	wsClients map[*websocket.Conn]bool

	server *http.Server
}

// NewServer は新しい API サーバーを作成する
//
// defaults は各実行のプール設定の元になり、defaultJobs はリクエストで
// jobs が省略されたときの件数
func NewServer(addr string, defaults pool.Config, defaultJobs int) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Server{
		addr:        addr,
		defaults:    defaults,
		defaultJobs: defaultJobs,
		registry:    reg,
		collectors:  metrics.NewCollectors(reg),
		bus:         events.NewBus(),
		runs:        make(map[uuid.UUID]*run),
		wsClients:   make(map[*websocket.Conn]bool),
	}
}

// Handler はルーティング済みのハンドラを返す
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/api/runs/{id}", s.handleRun)
	mux.Handle("/metrics", metrics.Handler(s.registry))
	mux.Handle("/ws", websocket.Handler(s.handleWebSocket))

	return mux
}

// Start は ctx が終わるまでサーバーを動かす
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.forwardEvents(ctx)

	logger.Info(scope, "API Server starting on http://%s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StatusResponse はステータスレスポンス
type StatusResponse struct {
	Running    bool              `json:"running"`
	ActiveRun  string            `json:"active_run,omitempty"`
	Runs       int               `json:"runs"`
	Workers    []pool.WorkerInfo `json:"workers,omitempty"`
	Dispatched uint64            `json:"dispatched"`
	Collected  uint64            `json:"collected"`
}

func (s *Server) status() StatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := StatusResponse{Runs: len(s.runs)}
	if s.active != nil {
		p := s.active.pool
		resp.Running = true
		resp.ActiveRun = s.active.id.String()
		resp.Workers = p.Workers()
		resp.Dispatched = p.Dispatched()
		resp.Collected = p.Collected()
	}
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.status())
}

// RunRequest は実行開始リクエスト
type RunRequest struct {
	Jobs    *int   `json:"jobs,omitempty"`
	Workers int    `json:"workers,omitempty"`
	Delay   string `json:"delay,omitempty"`
}

// RunInfo は実行の状態と結果
type RunInfo struct {
	ID        string       `json:"id"`
	Status    RunStatus    `json:"status"`
	Jobs      int          `json:"jobs"`
	Workers   int          `json:"workers"`
	StartedAt time.Time    `json:"started_at"`
	Error     string       `json:"error,omitempty"`
	Report    *pool.Report `json:"report,omitempty"`
}

func (rn *run) info() RunInfo {
	info := RunInfo{
		ID:        rn.id.String(),
		Status:    rn.status,
		Jobs:      rn.jobs,
		Workers:   rn.pool.NumWorkers(),
		StartedAt: rn.startedAt,
		Report:    rn.report,
	}
	if rn.err != nil {
		info.Error = rn.err.Error()
	}
	return info
}

// buildPoolConfig はリクエストを反映したプール設定を返す
func (s *Server) buildPoolConfig(req RunRequest) (pool.Config, int, error) {
	cfg := s.defaults
	jobs := s.defaultJobs

	if req.Jobs != nil {
		if *req.Jobs < 0 {
			return cfg, 0, fmt.Errorf("jobs must be non-negative")
		}
		jobs = *req.Jobs
	}
	if req.Workers < 0 {
		return cfg, 0, fmt.Errorf("workers must be non-negative")
	}
	if req.Workers > 0 {
		cfg.Workers = req.Workers
	}
	if req.Delay != "" {
		d, err := time.ParseDuration(req.Delay)
		if err != nil || d < 0 {
			return cfg, 0, fmt.Errorf("invalid delay: %q", req.Delay)
		}
		cfg.Task = worker.Sleep(d)
	}

	mcfg := metrics.DefaultConfig()
	mcfg.Collectors = s.collectors
	cfg.Metrics = metrics.NewWithConfig(mcfg)
	cfg.Bus = s.bus

	return cfg, jobs, nil
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.RLock()
		infos := make([]RunInfo, 0, len(s.runs))
		for _, rn := range s.runs {
			infos = append(infos, rn.info())
		}
		s.mu.RUnlock()
		s.writeJSON(w, http.StatusOK, infos)
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	cfg, jobs, err := s.buildPoolConfig(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if s.active != nil {
		s.mu.Unlock()
		http.Error(w, "Run already in progress", http.StatusConflict)
		return
	}
	rn := &run{
		id:        uuid.New(),
		pool:      pool.New(cfg),
		jobs:      jobs,
		startedAt: time.Now(),
		status:    RunRunning,
	}
	s.runs[rn.id] = rn
	s.active = rn
	s.mu.Unlock()

	go s.execute(rn)

	s.writeJSON(w, http.StatusAccepted, map[string]string{"id": rn.id.String(), "status": string(RunRunning)})
}

// execute はバックグラウンドで実行して結果を記録する
func (s *Server) execute(rn *run) {
	report, err := rn.pool.Run(job.Synthetic{Count: rn.jobs}, nil)

	s.mu.Lock()
	rn.report = report
	rn.err = err
	if err != nil {
		rn.status = RunFailed
	} else {
		rn.status = RunCompleted
	}
	s.active = nil
	info := rn.info()
	s.mu.Unlock()

	if err != nil {
		logger.Error(scope, "Run %s failed: %v", rn.id, err)
	} else {
		logger.Info(scope, "Run %s completed: %d results", rn.id, len(report.Results))
	}

	s.broadcast(map[string]any{
		"type": "run_complete",
		"run":  info,
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid run id", http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	rn, ok := s.runs[id]
	var info RunInfo
	if ok {
		info = rn.info()
	}
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

// WebSocket handling
func (s *Server) handleWebSocket(ws *websocket.Conn) {
	s.mu.Lock()
	s.wsClients[ws] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.wsClients, ws)
		s.mu.Unlock()
		_ = ws.Close()
	}()

	// クライアントが切断するまで待つ
	for {
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			break
		}
	}
}

// ClientCount は接続中の WebSocket クライアント数を返す
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.wsClients)
}

func (s *Server) broadcast(data any) {
	s.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(s.wsClients))
	for ws := range s.wsClients {
		clients = append(clients, ws)
	}
	s.mu.RUnlock()

	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}

	for _, ws := range clients {
		_ = websocket.Message.Send(ws, string(jsonData))
	}
}

// forwardEvents はプールのイベントを WebSocket クライアントへ流す
func (s *Server) forwardEvents(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			s.broadcast(e)
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error(scope, "Failed to encode JSON: %v", err)
	}
}
