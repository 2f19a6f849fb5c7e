package api

import (
	"encoding/json"
	"math"
	"net/http"
	"strings"

	"github.com/insightbrd/brd/internal/advisor"
	"github.com/insightbrd/brd/internal/connector"
	"github.com/insightbrd/brd/internal/ingest"
	"github.com/insightbrd/brd/internal/intelligence"
	"github.com/insightbrd/brd/internal/llm"
	"github.com/insightbrd/brd/internal/models"
	"github.com/insightbrd/brd/internal/store"
)

// Server provides the REST API handlers.
type Server struct {
	store    store.Store
	intel    *intelligence.Service
	advisor  *advisor.Service
	ingester *ingest.Service

	// SlackToken configures the Slack connector for ingestion requests.
	SlackToken string
}

// NewServer creates a new API server. The llmClient runs in mock mode when
// no API key is configured.
func NewServer(s store.Store, llmClient *llm.Client) *Server {
	return &Server{
		store:    s,
		intel:    intelligence.NewService(s),
		advisor:  advisor.NewService(s),
		ingester: ingest.NewService(s, llmClient),
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/projects", s.listProjects)
	mux.HandleFunc("POST /api/v1/projects", s.createProject)
	mux.HandleFunc("GET /api/v1/projects/{id}", s.getProject)
	mux.HandleFunc("PUT /api/v1/projects/{id}", s.updateProject)
	mux.HandleFunc("DELETE /api/v1/projects/{id}", s.deleteProject)

	mux.HandleFunc("GET /api/v1/projects/{id}/stakeholders", s.listStakeholders)
	mux.HandleFunc("POST /api/v1/projects/{id}/stakeholders", s.createStakeholder)
	mux.HandleFunc("DELETE /api/v1/stakeholders/{id}", s.deleteStakeholder)

	mux.HandleFunc("GET /api/v1/projects/{id}/requirements", s.listRequirements)
	mux.HandleFunc("POST /api/v1/projects/{id}/requirements", s.createRequirement)
	mux.HandleFunc("GET /api/v1/requirements/{id}", s.getRequirement)
	mux.HandleFunc("PUT /api/v1/requirements/{id}", s.updateRequirement)
	mux.HandleFunc("DELETE /api/v1/requirements/{id}", s.deleteRequirement)

	mux.HandleFunc("GET /api/v1/projects/{id}/conflicts", s.listConflicts)
	mux.HandleFunc("POST /api/v1/projects/{id}/conflicts/detect", s.detectConflicts)
	mux.HandleFunc("POST /api/v1/conflicts/{id}/resolve", s.resolveConflict)

	mux.HandleFunc("GET /api/v1/projects/{id}/intelligence", s.intelligenceSummary)
	mux.HandleFunc("GET /api/v1/projects/{id}/alignment", s.alignmentScore)
	mux.HandleFunc("GET /api/v1/projects/{id}/stability", s.stabilityIndex)
	mux.HandleFunc("GET /api/v1/projects/{id}/risk", s.riskForecast)
	mux.HandleFunc("GET /api/v1/projects/{id}/timeline", s.evolutionTimeline)
	mux.HandleFunc("GET /api/v1/projects/{id}/sentiment", s.sentimentOverview)

	mux.HandleFunc("GET /api/v1/conflicts/{id}/proposal", s.negotiationProposal)
	mux.HandleFunc("GET /api/v1/requirements/{id}/impact", s.changeImpact)

	mux.HandleFunc("POST /api/v1/projects/{id}/ingest", s.ingestProject)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store errors to HTTP statuses by their text, the
// same way the store reports them.
func writeStoreError(w http.ResponseWriter, err error) {
	if strings.Contains(err.Error(), "not found") {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// --- Projects ---

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.store.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var p models.Project
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if p.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.store.CreateProject(r.Context(), &p); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	existing, err := s.store.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var patch struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if patch.Name != nil {
		existing.Name = *patch.Name
	}
	if patch.Description != nil {
		existing.Description = *patch.Description
	}
	if patch.Status != nil {
		existing.Status = models.ProjectStatus(*patch.Status)
	}

	if err := s.store.UpdateProject(r.Context(), existing); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Stakeholders ---

func (s *Server) listStakeholders(w http.ResponseWriter, r *http.Request) {
	stakeholders, err := s.store.ListStakeholders(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stakeholders)
}

func (s *Server) createStakeholder(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, err := s.store.GetProject(r.Context(), projectID); err != nil {
		writeStoreError(w, err)
		return
	}

	var st models.Stakeholder
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	st.ProjectID = projectID
	if st.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.store.CreateStakeholder(r.Context(), &st); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) deleteStakeholder(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteStakeholder(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Requirements ---

func (s *Server) listRequirements(w http.ResponseWriter, r *http.Request) {
	requirements, err := s.store.ListRequirements(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, requirements)
}

func (s *Server) createRequirement(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, err := s.store.GetProject(r.Context(), projectID); err != nil {
		writeStoreError(w, err)
		return
	}

	var req models.Requirement
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.ProjectID = projectID
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if err := s.store.CreateRequirement(r.Context(), &req); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) getRequirement(w http.ResponseWriter, r *http.Request) {
	req, err := s.store.GetRequirement(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// updateRequirement applies a field-level patch. Every changed field gets a
// revision row; the response carries both the updated requirement and the
// revisions recorded for the change.
func (s *Server) updateRequirement(w http.ResponseWriter, r *http.Request) {
	existing, err := s.store.GetRequirement(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var patch struct {
		Text           *string  `json:"text"`
		Category       *string  `json:"category"`
		PriorityScore  *float64 `json:"priority_score"`
		SentimentScore *float64 `json:"sentiment_score"`
		Status         *string  `json:"status"`
		Actor          string   `json:"actor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if patch.Text != nil {
		existing.Text = *patch.Text
	}
	if patch.Category != nil {
		existing.Category = models.RequirementCategory(*patch.Category)
	}
	if patch.PriorityScore != nil {
		existing.PriorityScore = *patch.PriorityScore
	}
	if patch.SentimentScore != nil {
		existing.SentimentScore = *patch.SentimentScore
	}
	if patch.Status != nil {
		existing.Status = *patch.Status
	}

	revisions, err := s.store.UpdateRequirement(r.Context(), existing, patch.Actor)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"requirement": existing,
		"revisions":   revisions,
	})
}

func (s *Server) deleteRequirement(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRequirement(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Conflicts ---

func (s *Server) listConflicts(w http.ResponseWriter, r *http.Request) {
	filter := store.ConflictListFilter{
		ProjectID:      r.PathValue("id"),
		UnresolvedOnly: r.URL.Query().Get("all") == "",
	}
	conflicts, err := s.store.ListConflicts(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, conflicts)
}

func (s *Server) detectConflicts(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, err := s.store.GetProject(r.Context(), projectID); err != nil {
		writeStoreError(w, err)
		return
	}
	conflicts, err := s.intel.DetectConflicts(r.Context(), projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, conflicts)
}

func (s *Server) resolveConflict(w http.ResponseWriter, r *http.Request) {
	action := models.ResolveAction(r.URL.Query().Get("action"))
	if !action.Valid() {
		writeError(w, http.StatusBadRequest, "invalid action: must be apply, deprecate, or ignore")
		return
	}
	if err := s.store.ResolveConflict(r.Context(), r.PathValue("id"), action); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

// --- Intelligence ---

func (s *Server) intelligenceSummary(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, err := s.store.GetProject(r.Context(), projectID); err != nil {
		writeStoreError(w, err)
		return
	}

	sas, err := s.intel.AlignmentScore(r.Context(), projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rsi, err := s.intel.StabilityIndex(r.Context(), projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	forecast := intelligence.Forecast(sas, rsi)

	writeJSON(w, http.StatusOK, map[string]any{
		"alignment_score": round1(sas),
		"stability_index": round1(rsi),
		"risk_forecast":   forecast,
	})
}

func (s *Server) alignmentScore(w http.ResponseWriter, r *http.Request) {
	score, err := s.intel.AlignmentScore(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"alignment_score": score})
}

func (s *Server) stabilityIndex(w http.ResponseWriter, r *http.Request) {
	score, err := s.intel.StabilityIndex(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"stability_index": score})
}

func (s *Server) riskForecast(w http.ResponseWriter, r *http.Request) {
	forecast, err := s.intel.RiskForecast(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

func (s *Server) evolutionTimeline(w http.ResponseWriter, r *http.Request) {
	revisions, err := s.store.ListRevisions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type event struct {
		ID            string `json:"id"`
		RequirementID string `json:"requirement_id"`
		Field         string `json:"field"`
		OldValue      string `json:"old_value"`
		NewValue      string `json:"new_value"`
		Timestamp     string `json:"timestamp"`
	}
	events := make([]event, len(revisions))
	for i, rev := range revisions {
		events[i] = event{
			ID:            rev.ID,
			RequirementID: rev.RequirementID,
			Field:         rev.FieldChanged,
			OldValue:      rev.OldValue,
			NewValue:      rev.NewValue,
			Timestamp:     rev.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) sentimentOverview(w http.ResponseWriter, r *http.Request) {
	requirements, err := s.store.ListRequirements(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if len(requirements) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"overall_sentiment": 0.0,
			"channel_breakdown": map[string]float64{},
		})
		return
	}

	var total float64
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, req := range requirements {
		total += req.SentimentScore
		source := req.SourceType
		if source == "" {
			source = "unknown"
		}
		sums[source] += req.SentimentScore
		counts[source]++
	}

	breakdown := make(map[string]float64, len(sums))
	for source, sum := range sums {
		breakdown[source] = math.Round(sum/float64(counts[source])*100) / 100
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"overall_sentiment": math.Round(total/float64(len(requirements))*100) / 100,
		"channel_breakdown": breakdown,
	})
}

// --- Advisor ---

func (s *Server) negotiationProposal(w http.ResponseWriter, r *http.Request) {
	proposal, err := s.advisor.NegotiationProposal(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

func (s *Server) changeImpact(w http.ResponseWriter, r *http.Request) {
	field := r.URL.Query().Get("field")
	value := r.URL.Query().Get("value")
	if field == "" {
		writeError(w, http.StatusBadRequest, "field is required")
		return
	}

	impact, err := s.advisor.SimulateChangeImpact(r.Context(), r.PathValue("id"), field, value)
	if err != nil {
		if strings.Contains(err.Error(), "invalid numeric value") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, impact)
}

// --- Ingestion ---

func (s *Server) ingestProject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Source    string `json:"source"`
		Actor     string `json:"actor"`
		ChannelID string `json:"channel_id"`
		Query     string `json:"query"`
		Limit     int    `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Actor == "" {
		writeError(w, http.StatusBadRequest, "actor is required")
		return
	}

	var conn connector.Connector
	switch body.Source {
	case "slack":
		conn = connector.NewSlackConnector(s.SlackToken, body.ChannelID, body.Limit)
	case "gmail":
		conn = connector.NewGmailConnector(body.Query)
	case "enron":
		conn = connector.NewEnronConnector(body.Limit)
	case "ami":
		conn = connector.NewAMIConnector()
	default:
		writeError(w, http.StatusBadRequest, "unsupported source: "+body.Source)
		return
	}

	result, err := s.ingester.Run(r.Context(), r.PathValue("id"), conn, body.Actor)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
