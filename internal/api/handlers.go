// ABOUTME: HTTP handlers for diagnose, ingest, listing, and health endpoints
// ABOUTME: Maps engine and pipeline errors onto HTTP status codes
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/harper/faultfinder/internal/ingest"
	"github.com/harper/faultfinder/internal/llm"
	"github.com/harper/faultfinder/internal/models"
	"github.com/harper/faultfinder/internal/query"
	"github.com/harper/faultfinder/internal/snapshot"
	"go.uber.org/zap"
)

type diagnoseRequest struct {
	Query     string `json:"query"`
	Component string `json:"component,omitempty"`
	Model     string `json:"model,omitempty"`
	TopK      int    `json:"top_k,omitempty"`
}

type diagnoseResponse struct {
	Results []models.QueryResult `json:"results"`
	Errors  []string             `json:"errors"`
}

type ingestRequest struct {
	Rows []models.IngestRow `json:"rows"`
	Mode string             `json:"mode,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Health())
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"components": s.engine.ListComponents()})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	component := r.URL.Query().Get("component")
	if component == "" {
		writeError(w, http.StatusBadRequest, "component query parameter is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"models": s.engine.ListModels(component)})
}

func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	var req diagnoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		diagnoseRequests.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.TopK == 0 {
		req.TopK = s.cfg.DefaultTopK
	}

	results, err := s.engine.Diagnose(r.Context(), req.Query, req.Component, req.Model, req.TopK)
	if err != nil {
		var perr *llm.ProviderError
		switch {
		case errors.Is(err, query.ErrInvalidQuery):
			diagnoseRequests.WithLabelValues("bad_request").Inc()
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &perr):
			diagnoseRequests.WithLabelValues("provider_error").Inc()
			s.logger.Warn("embedding provider failed for query", zap.Error(err))
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			diagnoseRequests.WithLabelValues("error").Inc()
			s.logger.Error("diagnose failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	diagnoseRequests.WithLabelValues("ok").Inc()
	if results == nil {
		results = []models.QueryResult{}
	}
	writeJSON(w, http.StatusOK, diagnoseResponse{Results: results, Errors: []string{}})
}

// handleIngest accepts either a JSON body with rows and a mode, or a
// multipart upload with a CSV file under the "file" field. A successful run
// flushes a fresh snapshot; a snapshot failure is structural and reported
// as 500 with the prior snapshot left intact on disk.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	rows, mode, err := s.decodeIngest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	summary, err := s.pipeline.IngestRows(r.Context(), rows, mode)
	if err != nil {
		s.logger.Error("ingestion run aborted", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ingestRows.WithLabelValues("accepted").Add(float64(summary.Accepted))
	ingestRows.WithLabelValues("skipped").Add(float64(summary.Skipped))
	ingestRows.WithLabelValues("failed").Add(float64(summary.Failed))

	if err := snapshot.Save(s.cfg.SnapshotPath, s.store, s.index); err != nil {
		s.logger.Error("snapshot save failed after ingest", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "persisting snapshot: "+err.Error())
		return
	}

	if summary.Errors == nil {
		summary.Errors = []models.RowError{}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) decodeIngest(r *http.Request) ([]models.IngestRow, ingest.Mode, error) {
	mode, err := ingest.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		return nil, "", err
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("reading uploaded file: %w", err)
		}
		defer file.Close()
		rows, err := ingest.ParseCSVRows(file)
		if err != nil {
			return nil, "", err
		}
		return rows, mode, nil
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "", fmt.Errorf("invalid JSON body: %w", err)
	}
	if req.Mode != "" {
		if mode, err = ingest.ParseMode(req.Mode); err != nil {
			return nil, "", err
		}
	}
	return req.Rows, mode, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
