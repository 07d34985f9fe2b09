package admin

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"webqa-probe/internal/observe"
)

// Server exposes live run state over HTTP: a small auto-refreshing page
// plus JSON endpoints for scripting.
type Server struct {
	Tracker *Tracker
	tpl     *template.Template
}

//go:embed templates/index.html
var content embed.FS

func NewServer(tr *Tracker) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{Tracker: tr, tpl: tpl}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/observations", s.handleObservations)
	mux.HandleFunc("/summary", s.handleSummary)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully. It
// returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	return srv.ListenAndServe()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Status Status
		Recent []observe.Observation
	}{
		Status: s.Tracker.Status(),
		Recent: s.Tracker.Recent(25),
	}
	s.tpl.Execute(w, data)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Tracker.Status())
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Tracker.Recent(limit))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	res := s.Tracker.Result()
	if res == nil {
		http.Error(w, "no completed run yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
