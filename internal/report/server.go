package report

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/helios-lab/helios-trading/internal/logger"
	"go.uber.org/zap"
)

// Server serves a results folder over HTTP so reports can be inspected in a
// browser.
type Server struct {
	resultsFolder string
	log           *logger.Logger
}

// NewServer creates a server for the given results folder.
func NewServer(resultsFolder string, log *logger.Logger) *Server {
	return &Server{resultsFolder: resultsFolder, log: log}
}

// Router builds the HTTP routes: a health endpoint and a static file tree
// rooted at the results folder.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.PathPrefix("/").Handler(
		http.FileServer(http.Dir(s.resultsFolder)))

	return router
}

// ListenAndServe blocks serving the results folder on addr.
func (s *Server) ListenAndServe(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.log.Info("serving results",
		zap.String("addr", addr),
		zap.String("folder", s.resultsFolder))

	return server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
