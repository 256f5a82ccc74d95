package server

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/shortlist/internal/extract"
	"go.uber.org/zap"
)

type screenRequest struct {
	JobText     string   `json:"job_text"`
	ResumePaths []string `json:"resume_paths,omitempty"`
	ResumeDir   string   `json:"resume_dir,omitempty"`
	K           int      `json:"k,omitempty"`
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	var req screenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.JobText == "" {
		s.respondError(w, http.StatusBadRequest, "job_text is required")
		return
	}
	paths := req.ResumePaths
	if req.ResumeDir != "" {
		info, err := os.Stat(req.ResumeDir)
		if err != nil {
			s.respondError(w, http.StatusNotFound, "resume_dir not found")
			return
		}
		if !info.IsDir() {
			s.respondError(w, http.StatusBadRequest, "resume_dir is not a directory")
			return
		}
		found, err := extract.ListFiles(req.ResumeDir, s.resumeExtensions())
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		s.respondError(w, http.StatusBadRequest, "no resumes given (resume_paths or resume_dir)")
		return
	}
	s.logger.Debug("screen request", zap.Int("resumes", len(paths)), zap.Int("k", req.K))

	report, err := s.pipeline.Run(r.Context(), req.JobText, paths, req.K)
	if err != nil {
		s.logger.Error("screening failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	run, err := s.store.SaveReport(r.Context(), report)
	if err != nil {
		s.logger.Error("saving run failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  run.ID,
		"results": report.Results,
		"skipped": report.Skipped,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.store.ListRuns(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("listing runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.store.CountRuns(r.Context())
	if err != nil {
		s.logger.Error("counting runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"total": total,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	s.respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountRuns(r.Context())
	if err != nil {
		s.logger.Error("status: count runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"runs": count,
	}
	if s.appCfg != nil {
		resp["config"] = map[string]interface{}{
			"embedding_backend":    s.appCfg.Embedding.Backend,
			"embedding_dimensions": s.appCfg.Embedding.Dimensions,
			"scorer_model":         s.appCfg.Scorer.Model,
			"top_k":                s.appCfg.Screen.TopK,
			"database_path":        s.appCfg.Storage.DatabasePath,
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) resumeExtensions() []string {
	if s.appCfg != nil {
		return s.appCfg.Screen.Extensions
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
