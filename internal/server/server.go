// Package server exposes the HTTP gateway: a single POST /run endpoint that
// accepts a document URL plus questions and replies with the answers once the
// worker side publishes them.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/roost-io/roost/internal/await"
	"github.com/roost-io/roost/internal/coordinator"
	"github.com/roost-io/roost/internal/download"
	"github.com/roost-io/roost/internal/fileext"
	"github.com/roost-io/roost/internal/store"
)

// runRequest is the body of POST /run.
type runRequest struct {
	Documents string   `json:"documents"` // URL of the document to process
	Questions []string `json:"questions"` // Questions to answer, in order
}

// runResponse is the success payload: one answer per question, in order.
type runResponse struct {
	Answers []string `json:"answers"`
}

// errorResponse is the structured failure payload. Category is one of
// "download", "timeout", "storage", or "internal".
type errorResponse struct {
	Error struct {
		Category string `json:"category"`
		Message  string `json:"message"`
	} `json:"error"`
}

// Server routes gateway requests to the coordinator.
type Server struct {
	coord *coordinator.Coordinator
}

// New creates a gateway server over the given coordinator.
func New(coord *coordinator.Coordinator) *Server {
	return &Server{coord: coord}
}

// Handler returns the gateway's HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/run", s.handleRun)
	return mux
}

// handleRun downloads, coordinates, and answers one request. The request
// context flows through the whole pipeline, so a client disconnect tears
// down the result wait and its bus subscription promptly.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "download", "invalid request body: "+err.Error())
		return
	}
	if req.Documents == "" {
		writeError(w, http.StatusBadRequest, "download", "documents URL is required")
		return
	}

	ctx := r.Context()

	tempPath, contentHash, header, err := download.Fetch(ctx, req.Documents)
	if err != nil {
		log.Printf("[WARN] Download failed for %s: %v", req.Documents, err)
		if download.IsDownloadError(err) {
			writeError(w, http.StatusBadRequest, "download", err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
		}
		return
	}
	// On the new-content path the store renames the temp file away and this
	// remove is a no-op; on the duplicate path it cleans up the second copy.
	defer os.Remove(tempPath)

	outcome, err := s.coord.Run(ctx, &coordinator.Request{
		TempPath:      tempPath,
		ContentHash:   contentHash,
		ExtensionHint: fileext.FromResponse(req.Documents, header),
		Questions:     req.Questions,
	})
	if err != nil {
		writeCoordinatorError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runResponse{Answers: outcome.Answers})
}

// writeCoordinatorError maps the coordinator's error taxonomy onto HTTP
// statuses. Timeout gets its own gateway-timeout status, never conflated
// with generic internal errors.
func writeCoordinatorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, await.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "timeout", err.Error())
	case store.IsStorageError(err):
		writeError(w, http.StatusInternalServerError, "storage", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, category, message string) {
	var resp errorResponse
	resp.Error.Category = category
	resp.Error.Message = message

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
