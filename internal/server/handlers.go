package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/clausekit/internal/auth"
	"github.com/hyperjump/clausekit/internal/export"
	"github.com/hyperjump/clausekit/internal/extract"
	"github.com/hyperjump/clausekit/internal/models"
	"github.com/hyperjump/clausekit/internal/render"
	"github.com/hyperjump/clausekit/internal/search"
	"github.com/hyperjump/clausekit/internal/storage"
	"github.com/hyperjump/clausekit/internal/upstream"
	"go.uber.org/zap"
)

const (
	maxJSONBodyBytes = 4 << 20
	multipartMemory  = 1 << 20
	uploadField      = "file"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "clausekit backend is running")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Info("login rejected", zap.String("username", req.Username))
			s.respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.logger.Error("login failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	s.logger.Info("login succeeded", zap.String("username", req.Username))
	s.respondJSON(w, http.StatusOK, models.LoginResponse{Token: token})
}

func (s *Server) handleGenerateClause(w http.ResponseWriter, r *http.Request) {
	s.forward(w, r, upstream.PathGenerateClause, "AI service error (generate-clause)")
}

func (s *Server) handleAnalyzeRisk(w http.ResponseWriter, r *http.Request) {
	s.forward(w, r, upstream.PathAnalyzeRisk, "AI service error (analyze-risk)")
}

// forward relays the JSON body to the upstream service and its JSON reply back.
func (s *Server) forward(w http.ResponseWriter, r *http.Request, path, failure string) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err != nil || !json.Valid(body) {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var user string
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		user = claims.Username
	}
	resp, err := s.upstream.Forward(r.Context(), path, body)
	if err != nil {
		s.logger.Error("upstream call failed", zap.String("path", path), zap.String("user", user), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, failure)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.logger.Warn("failed to remove multipart temp files", zap.Error(err))
		}
	}()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	upload, err := extract.SaveUpload(s.config.UploadDir, file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		s.logger.Error("failed to store upload", zap.String("filename", header.Filename), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to process file")
		return
	}
	s.logger.Debug("upload received",
		zap.String("filename", upload.Filename),
		zap.String("content_type", upload.ContentType),
		zap.Stringer("kind", upload.Kind()),
		zap.Int64("size", upload.Size),
	)

	text, err := s.extractor.ExtractFile(upload)
	if err != nil {
		s.logger.Error("extraction failed", zap.String("filename", upload.Filename), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to process file")
		return
	}
	s.respondJSON(w, http.StatusOK, models.UploadResponse{Text: text})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req models.ExportRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.exporter.Export(req)
	if err != nil {
		s.respondFailure(w, err, "Failed to export file")
		return
	}
	s.sendAttachment(w, res)
}

func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := chi.URLParam(r, "format")
	res, err := s.exporter.DownloadTemplate(r.Context(), id, format)
	if err != nil {
		s.respondFailure(w, err, "Failed to download template")
		return
	}
	s.sendAttachment(w, res)
}

func (s *Server) sendAttachment(w http.ResponseWriter, res *export.Result) {
	if err := res.WriteTo(w); err != nil {
		// Headers are already sent; the client sees a truncated body.
		s.logger.Error("attachment write failed",
			zap.String("filename", res.Filename),
			zap.Bool("streaming", res.Streaming()),
			zap.Error(err),
		)
	}
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("failed to load templates", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to load templates")
		return
	}
	s.respondJSON(w, http.StatusOK, catalog)
}

func (s *Server) handleSearchTemplates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	fuzzy := false
	if v := q.Get("fuzzy"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "fuzzy must be a boolean")
			return
		}
		fuzzy = b
	}

	catalog, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("failed to load templates", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to load templates")
		return
	}
	results, err := s.searcher.Search(r.Context(), catalog, q.Get("q"), limit, fuzzy)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			s.respondError(w, http.StatusBadRequest, "q is required")
			return
		}
		s.logger.Error("template search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to search templates")
		return
	}
	s.respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleAddTemplate(w http.ResponseWriter, r *http.Request) {
	var t models.Template
	if err := s.decodeJSON(w, r, &t); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	catalog, err := s.store.Add(r.Context(), t)
	if err != nil {
		s.respondFailure(w, err, "Failed to add template")
		return
	}
	s.logger.Info("template added", zap.String("id", t.ID))
	s.respondJSON(w, http.StatusOK, models.CatalogResponse{
		Success:   true,
		Message:   "Template added successfully",
		Templates: catalog,
	})
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	catalog, err := s.store.Delete(r.Context(), id)
	if err != nil {
		s.respondFailure(w, err, "Failed to delete template")
		return
	}
	s.logger.Info("template deleted", zap.String("id", id))
	s.respondJSON(w, http.StatusOK, models.CatalogResponse{
		Success:   true,
		Message:   "Template deleted successfully",
		Templates: catalog,
	})
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)).Decode(v)
}

// respondFailure maps a domain error to its status code. Unrecognized errors are
// logged and reported with fallback.
func (s *Server) respondFailure(w http.ResponseWriter, err error, fallback string) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		s.respondError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, render.ErrUnsupportedKind):
		s.respondError(w, http.StatusBadRequest, "Invalid format")
	case errors.Is(err, storage.ErrDuplicateID):
		s.respondError(w, http.StatusBadRequest, "Template ID already exists")
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "Template not found")
	default:
		s.logger.Error(fallback, zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, fallback)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
