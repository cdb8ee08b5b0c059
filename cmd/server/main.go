package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/complyport/deadlines/company"
	"github.com/complyport/deadlines/deadline"
	"github.com/complyport/deadlines/internal/logger"
	"github.com/complyport/deadlines/mirror"
	"github.com/complyport/deadlines/ruleset"
	"github.com/complyport/deadlines/tenantengine"
)

type Server struct {
	db        *sql.DB
	manager   *tenantengine.Manager
	engine    *deadline.Engine
	previews  deadline.PreviewCache
	validator *ruleset.Validator
	coord     *mirror.Coordinator
	router    *chi.Mux
}

// NewServer wires the engine, tenant manager, and routes. databaseURL
// and remoteCalcURL may be empty: without a database tenants live in
// memory, without a remote calculator previews are local-only.
func NewServer(databaseURL, remoteCalcURL string) (*Server, error) {
	var db *sql.DB
	if databaseURL != "" {
		var err error
		db, err = sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
	}

	manager := tenantengine.NewManager(db)
	if db != nil {
		loaded, err := manager.LoadAllTenants()
		if err != nil {
			return nil, fmt.Errorf("failed to load tenants: %w", err)
		}
		logger.Info("loaded tenants", "count", loaded)
	}

	engine, err := deadline.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	validator, err := ruleset.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	var coord *mirror.Coordinator
	if remoteCalcURL != "" {
		coord = mirror.NewCoordinator(engine, &mirror.HTTPCalculator{
			BaseURL: strings.TrimSuffix(remoteCalcURL, "/"),
		})
		logger.Info("mirroring previews to remote calculator", "url", remoteCalcURL)
	}

	s := &Server{
		db:        db,
		manager:   manager,
		engine:    engine,
		previews:  deadline.NewInMemoryPreviewCache(deadline.DefaultCacheConfig()),
		validator: validator,
		coord:     coord,
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/v1/health", s.handleHealth)
	r.Get("/api/v1/metrics", s.handleMetrics)

	// Stateless preview: rules and anchor data inline.
	r.Post("/api/v1/preview", s.handlePreview)
	r.Get("/api/v1/preview/current", s.handleCurrentPreview)

	r.Route("/api/v1/tenants", func(r chi.Router) {
		r.Get("/", s.handleListTenants)
		r.Post("/", s.handleCreateTenant)

		r.Route("/{tenantId}", func(r chi.Router) {
			r.Get("/companies", s.handleListCompanies)
			r.Post("/companies", s.handleCreateCompany)

			r.Route("/companies/{companyId}", func(r chi.Router) {
				r.Get("/anchors", s.handleGetAnchors)
				r.Put("/anchors", s.handlePutAnchors)
				r.Post("/deadlines/preview", s.handleCompanyPreview)
			})
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"tenantsLoaded": len(s.manager.ListTenants()),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, MetricsResponse{
		TotalErrors:    logger.TotalErrors.Load(),
		TotalWarnings:  logger.TotalWarnings.Load(),
		Total5xxErrors: logger.Total5xxErrors.Load(),
		Total4xxErrors: logger.Total4xxErrors.Load(),
		PreviewsServed: logger.PreviewsServed.Load(),
		PreviewsCached: logger.PreviewsCached.Load(),
		RuleWarnings:   logger.RuleWarnings.Load(),
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req deadline.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := s.validator.ValidateRules(req.Rules); err != nil {
		respondError(w, http.StatusBadRequest, "invalid rules", err)
		return
	}

	fingerprint := s.engine.Fingerprint(req)
	if cached := s.previews.Get(fingerprint); cached != nil {
		logger.PreviewsCached.Add(1)
		respondJSON(w, http.StatusOK, cached)
		return
	}

	result, err := s.preview(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "preview failed", err)
		return
	}

	s.previews.Set(fingerprint, result)
	logger.PreviewsServed.Add(1)
	logger.RuleWarnings.Add(int64(len(result.Warnings)))

	respondJSON(w, http.StatusOK, result)
}

// preview computes locally, mirroring to the remote calculator when one
// is configured.
func (s *Server) preview(ctx context.Context, req deadline.PreviewRequest) (*deadline.PreviewResult, error) {
	if s.coord != nil {
		return s.coord.Recompute(ctx, req)
	}
	return s.engine.Preview(req)
}

func (s *Server) handleCurrentPreview(w http.ResponseWriter, r *http.Request) {
	if s.coord == nil {
		respondError(w, http.StatusNotFound, "no remote calculator configured", nil)
		return
	}

	result, authoritative := s.coord.Current()
	if result == nil {
		respondError(w, http.StatusNotFound, "no preview computed yet", nil)
		return
	}

	respondJSON(w, http.StatusOK, CurrentPreviewResponse{
		Result:        result,
		Authoritative: authoritative,
	})
}

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	tenants := []TenantResponse{}
	for _, id := range s.manager.ListTenants() {
		t, err := s.manager.GetTenant(id)
		if err != nil {
			continue
		}
		tenants = append(tenants, TenantResponse{ID: t.TenantID, Name: t.Name})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"tenants": tenants,
	})
}

func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	var tenantID string
	if s.db != nil {
		err := s.db.QueryRow(`
			INSERT INTO tenants (name, created_at, updated_at)
			VALUES ($1, NOW(), NOW())
			RETURNING id
		`, req.Name).Scan(&tenantID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to create tenant", err)
			return
		}
	} else {
		tenantID = uuid.New().String()
	}

	if err := s.manager.CreateTenant(tenantID, req.Name); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to initialize tenant", err)
		return
	}

	respondJSON(w, http.StatusCreated, TenantResponse{ID: tenantID, Name: req.Name})
}

func (s *Server) tenant(w http.ResponseWriter, r *http.Request) *tenantengine.Tenant {
	tenantID := chi.URLParam(r, "tenantId")
	t, err := s.manager.GetTenant(tenantID)
	if err != nil {
		respondError(w, http.StatusNotFound, "tenant not found", err)
		return nil
	}
	return t
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	tenant := s.tenant(w, r)
	if tenant == nil {
		return
	}

	active, err := tenant.Companies.ListActive()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list companies", err)
		return
	}

	companies := make([]CompanyResponse, 0, len(active))
	for _, c := range active {
		companies = append(companies, companyResponse(c))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"companies": companies,
	})
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	tenant := s.tenant(w, r)
	if tenant == nil {
		return
	}

	var req CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	c := &company.Company{
		ID:      uuid.New().String(),
		Name:    req.Name,
		Active:  true,
		Anchors: req.Anchors,
	}
	if err := tenant.Companies.Add(c); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create company", err)
		return
	}

	respondJSON(w, http.StatusCreated, companyResponse(c))
}

func (s *Server) handleGetAnchors(w http.ResponseWriter, r *http.Request) {
	tenant := s.tenant(w, r)
	if tenant == nil {
		return
	}

	c, err := tenant.Companies.Get(chi.URLParam(r, "companyId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "company not found", err)
		return
	}

	respondJSON(w, http.StatusOK, c.Anchors)
}

func (s *Server) handlePutAnchors(w http.ResponseWriter, r *http.Request) {
	tenant := s.tenant(w, r)
	if tenant == nil {
		return
	}

	c, err := tenant.Companies.Get(chi.URLParam(r, "companyId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "company not found", err)
		return
	}

	var anchors deadline.CompanyAnchorData
	if err := json.NewDecoder(r.Body).Decode(&anchors); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	c.Anchors = anchors
	if err := tenant.Companies.Update(c); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update anchors", err)
		return
	}

	// Anchor data feeds every preview for this tenant.
	tenant.Previews.Invalidate()

	respondJSON(w, http.StatusOK, c.Anchors)
}

func (s *Server) handleCompanyPreview(w http.ResponseWriter, r *http.Request) {
	tenant := s.tenant(w, r)
	if tenant == nil {
		return
	}

	c, err := tenant.Companies.Get(chi.URLParam(r, "companyId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "company not found", err)
		return
	}

	var req CompanyPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := s.validator.ValidateRules(req.Rules); err != nil {
		respondError(w, http.StatusBadRequest, "invalid rules", err)
		return
	}

	previewReq := deadline.PreviewRequest{
		Rules:            req.Rules,
		Company:          c.Anchors,
		ServiceStartDate: req.ServiceStartDate,
		Exclusions:       req.Exclusions,
		Now:              req.Now,
		RenderCap:        req.RenderCap,
	}

	fingerprint := tenant.Engine.Fingerprint(previewReq)
	if cached := tenant.Previews.Get(fingerprint); cached != nil {
		logger.PreviewsCached.Add(1)
		respondJSON(w, http.StatusOK, cached)
		return
	}

	result, err := tenant.Engine.Preview(previewReq)
	if err != nil {
		respondError(w, http.StatusBadRequest, "preview failed", err)
		return
	}

	tenant.Previews.Set(fingerprint, result)
	logger.PreviewsServed.Add(1)
	logger.RuleWarnings.Add(int64(len(result.Warnings)))

	respondJSON(w, http.StatusOK, result)
}

func companyResponse(c *company.Company) CompanyResponse {
	return CompanyResponse{
		ID:        c.ID,
		Name:      c.Name,
		Active:    c.Active,
		Anchors:   c.Anchors,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
	logger.CountStatus(status)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}
	respondJSON(w, status, response)
}

func main() {
	server, err := NewServer(os.Getenv("DATABASE_URL"), os.Getenv("REMOTE_CALC_URL"))
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}
	if server.db != nil {
		defer server.db.Close()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := logger.Shutdown(ctx); err != nil {
		logger.Error("logger shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
