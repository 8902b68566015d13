package autolog

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ducminhle1904/gold-intel-bot/pkg/types"
)

// StatusResponse is the /status document.
type StatusResponse struct {
	Timestamp  time.Time           `json:"timestamp"`
	LastTick   *types.TickSnapshot `json:"last_tick,omitempty"`
	OpenTrades []*PaperTrade       `json:"open_trades"`
	Statistics Statistics          `json:"statistics"`
}

// Server exposes the auto-logger's state over HTTP.
type Server struct {
	logger *AutoLogger
	log    zerolog.Logger
}

// NewServer wraps an auto-logger for HTTP exposure.
func NewServer(logger *AutoLogger, log zerolog.Logger) *Server {
	return &Server{logger: logger, log: log.With().Str("component", "autolog-http").Logger()}
}

// Router builds the HTTP route set.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(
		s.logger.Metrics().Registry(),
		promhttp.HandlerOpts{},
	)).Methods(http.MethodGet)
	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	open, err := s.logger.store.OpenTrades()
	if err != nil {
		s.log.Error().Err(err).Msg("status query failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	stats, err := s.logger.store.Statistics()
	if err != nil {
		s.log.Error().Err(err).Msg("status query failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if open == nil {
		open = []*PaperTrade{}
	}
	resp := StatusResponse{
		Timestamp:  time.Now().UTC(),
		LastTick:   s.logger.LastTick(),
		OpenTrades: open,
		Statistics: stats,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error().Err(err).Msg("failed to encode status response")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
