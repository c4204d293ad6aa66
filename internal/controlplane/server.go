// Package controlplane provides the HTTP API for campaignd.
package controlplane

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/promodesk/campaignd/internal/campaign"
	"github.com/promodesk/campaignd/internal/models"
	"github.com/promodesk/campaignd/internal/store"
)

// Server provides the HTTP API for campaignd.
type Server struct {
	service *campaign.Service
	store   *store.Store
	addr    string
	version string
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(service *campaign.Service, st *store.Store, addr, version string, logger *zap.Logger) *Server {
	return &Server{
		service: service,
		store:   st,
		addr:    addr,
		version: version,
		logger:  logger,
	}
}

// Start starts the HTTP server. Blocks until the server exits.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/campaigns", s.handleCampaigns)
	mux.HandleFunc("/campaigns/", s.handleCampaignByID)
	mux.HandleFunc("/briefs", s.handleBriefs)
	mux.HandleFunc("/briefs/", s.handleBriefByID)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	s.logger.Info("control plane listening", zap.String("addr", s.addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleCampaigns handles POST /campaigns and GET /campaigns
func (s *Server) handleCampaigns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createCampaign(w, r)
	case http.MethodGet:
		s.listCampaigns(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type createCampaignRequest struct {
	Transcript    string `json:"transcript"`
	Hint          string `json:"hint"`
	OverrideReady bool   `json:"override_ready"`
}

func (s *Server) createCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		http.Error(w, "transcript required", http.StatusBadRequest)
		return
	}

	result, err := s.service.CreateCampaign(r.Context(), req.Transcript, req.Hint, req.OverrideReady)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) listCampaigns(w http.ResponseWriter, r *http.Request) {
	status := models.CampaignStatus(r.URL.Query().Get("status"))
	campaigns, err := s.service.ListCampaigns(status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if campaigns == nil {
		campaigns = []models.Campaign{}
	}
	writeJSON(w, http.StatusOK, campaigns)
}

// handleCampaignByID handles /campaigns/{id}/*
func (s *Server) handleCampaignByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/campaigns/")
	parts := strings.Split(path, "/")

	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "campaign id required", http.StatusBadRequest)
		return
	}

	campaignID := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch action {
	case "":
		s.getCampaign(w, r, campaignID)
	case "tasks":
		s.getCampaignTasks(w, r, campaignID)
	case "notifications":
		s.getCampaignNotifications(w, r, campaignID)
	case "events":
		s.getCampaignEvents(w, r, campaignID)
	case "board":
		s.getCampaignBoard(w, r, campaignID)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) getCampaign(w http.ResponseWriter, r *http.Request, id string) {
	c, err := s.service.GetCampaign(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if c == nil {
		http.Error(w, "campaign not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) getCampaignTasks(w http.ResponseWriter, r *http.Request, id string) {
	tasks, err := s.service.ListTasks(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) getCampaignNotifications(w http.ResponseWriter, r *http.Request, id string) {
	notifications, err := s.service.ListNotifications(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if notifications == nil {
		notifications = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) getCampaignEvents(w http.ResponseWriter, r *http.Request, id string) {
	records, err := s.store.ListEvents(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if records == nil {
		records = []store.EventRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) getCampaignBoard(w http.ResponseWriter, r *http.Request, id string) {
	board, err := s.service.GetBoard(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if board == nil {
		http.Error(w, "board not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// handleBriefs handles POST /briefs and GET /briefs
func (s *Server) handleBriefs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.ingestBrief(w, r)
	case http.MethodGet:
		s.listBriefs(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type ingestRequest struct {
	Transcript string `json:"transcript"`
	Hint       string `json:"hint"`
}

func (s *Server) ingestBrief(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		http.Error(w, "transcript required", http.StatusBadRequest)
		return
	}

	b, err := s.service.IngestTranscript(r.Context(), req.Transcript, req.Hint)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) listBriefs(w http.ResponseWriter, r *http.Request) {
	briefs, err := s.store.ListBriefs()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if briefs == nil {
		briefs = []models.CampaignBrief{}
	}
	writeJSON(w, http.StatusOK, briefs)
}

// handleBriefByID handles GET /briefs/{id}
func (s *Server) handleBriefByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/briefs/")
	if id == "" {
		http.Error(w, "brief id required", http.StatusBadRequest)
		return
	}

	b, err := s.store.GetBrief(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if b == nil {
		http.Error(w, "brief not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// healthResponse is the health endpoint payload.
type healthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		OK:      true,
		DB:      "ok",
		Version: s.version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		resp.OK = false
		resp.DB = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
