package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fleetbook/internal/export"
	"fleetbook/internal/fleet"
	"fleetbook/internal/ledger"
	"fleetbook/internal/models"
	"fleetbook/internal/parser"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// maxUploadBytes bounds import, restore and receipt bodies
const maxUploadBytes = 10 << 20

// exportFailedMessage is shown for any spreadsheet failure
const exportFailedMessage = "Failed to generate Excel. Please check your data logs."

// StatsSource reports storage statistics
type StatsSource interface {
	GetStats(ctx context.Context) (map[string]interface{}, error)
}

// Server represents the API server
type Server struct {
	svc    *fleet.Service
	stats  StatsSource
	router *mux.Router
}

// NewServer creates a new API server. stats may be nil.
func NewServer(svc *fleet.Service, stats StatsSource) *Server {
	s := &Server{
		svc:    svc,
		stats:  stats,
		router: mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Vehicle endpoints
	api.HandleFunc("/vehicles", s.handleListVehicles).Methods("GET")
	api.HandleFunc("/vehicles", s.handleCreateVehicle).Methods("POST")
	api.HandleFunc("/vehicles/{id}", s.handleGetVehicle).Methods("GET")
	api.HandleFunc("/vehicles/{id}", s.handleUpdateVehicle).Methods("PUT")
	api.HandleFunc("/vehicles/{id}", s.handleDeleteVehicle).Methods("DELETE")

	// Log endpoints
	api.HandleFunc("/trips", s.handleListTrips).Methods("GET")
	api.HandleFunc("/trips", s.handleCreateTrip).Methods("POST")
	api.HandleFunc("/fuel", s.handleListFuel).Methods("GET")
	api.HandleFunc("/fuel", s.handleCreateFuel).Methods("POST")
	api.HandleFunc("/expenses", s.handleListExpenses).Methods("GET")
	api.HandleFunc("/expenses", s.handleCreateExpense).Methods("POST")
	api.HandleFunc("/import", s.handleImport).Methods("POST")

	// Reporting endpoints
	api.HandleFunc("/alerts", s.handleAlerts).Methods("GET")
	api.HandleFunc("/dashboard", s.handleDashboard).Methods("GET")
	api.HandleFunc("/reports/{period}", s.handleReport).Methods("GET")
	api.HandleFunc("/reports/{period}/xlsx", s.handleExport).Methods("GET")
	api.HandleFunc("/backup", s.handleBackup).Methods("GET")
	api.HandleFunc("/restore", s.handleRestore).Methods("POST")

	// Sync and assistant endpoints
	api.HandleFunc("/sync/url", s.handleSetSyncURL).Methods("PUT")
	api.HandleFunc("/sync", s.handleSync).Methods("POST")
	api.HandleFunc("/insights", s.handleInsights).Methods("GET")
	api.HandleFunc("/scan", s.handleScan).Methods("POST")

	// Stats endpoint
	api.HandleFunc("/stats", s.handleStats).Methods("GET")

	// Add middleware
	s.router.Use(loggingMiddleware)
	s.router.Use(jsonMiddleware)
}

// Router returns the configured router
func (s *Server) Router() *mux.Router {
	return s.router
}

// Middleware
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Info("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Response helpers
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Field   string      `json:"field,omitempty"`
	Meta    *meta       `json:"meta,omitempty"`
}

type meta struct {
	Total  int    `json:"total,omitempty"`
	Period string `json:"period,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: false, Error: message})
}

func respondWithMeta(w http.ResponseWriter, data interface{}, m *meta) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data, Meta: m})
}

// respondFailure maps service errors onto status codes
func respondFailure(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(apiResponse{Success: false, Error: verr.Message, Field: verr.Field})
	case errors.Is(err, fleet.ErrVehicleNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, fleet.ErrNoSyncURL):
		respondError(w, http.StatusConflict, err.Error())
	default:
		logrus.WithError(err).Error("request failed")
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondFile(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &models.ValidationError{Field: "body", Message: "invalid JSON"}
	}
	return nil
}

// periodParam reads an optional period query parameter
func periodParam(r *http.Request) (ledger.Period, error) {
	v := r.URL.Query().Get("period")
	if v == "" {
		return "", nil
	}
	p, err := ledger.ParsePeriod(v)
	if err != nil {
		return "", &models.ValidationError{Field: "period", Message: err.Error()}
	}
	return p, nil
}

// Handlers
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles := s.svc.Vehicles()
	respondWithMeta(w, vehicles, &meta{Total: len(vehicles)})
}

func (s *Server) handleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var in models.VehicleInput
	if err := decode(r, &in); err != nil {
		respondFailure(w, err)
		return
	}

	v, err := s.svc.AddVehicle(r.Context(), in)
	if err != nil {
		respondFailure(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, v)
}

func (s *Server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.Vehicle(mux.Vars(r)["id"])
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) handleUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var in models.VehicleInput
	if err := decode(r, &in); err != nil {
		respondFailure(w, err)
		return
	}

	v, err := s.svc.UpdateVehicle(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) handleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteVehicle(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": mux.Vars(r)["id"]})
}

// logs reads the period and vehicle_id filters shared by the list endpoints
func (s *Server) logs(w http.ResponseWriter, r *http.Request) (ledger.Slice, ledger.Period, bool) {
	p, err := periodParam(r)
	if err != nil {
		respondFailure(w, err)
		return ledger.Slice{}, "", false
	}
	sl, err := s.svc.Logs(p, r.URL.Query().Get("vehicle_id"))
	if err != nil {
		respondFailure(w, err)
		return ledger.Slice{}, "", false
	}
	return sl, p, true
}

func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	sl, p, ok := s.logs(w, r)
	if !ok {
		return
	}
	trips := sl.Trips
	if trips == nil {
		trips = []models.DailyLog{}
	}
	respondWithMeta(w, trips, &meta{Total: len(trips), Period: string(p)})
}

func (s *Server) handleListFuel(w http.ResponseWriter, r *http.Request) {
	sl, p, ok := s.logs(w, r)
	if !ok {
		return
	}
	fuel := sl.Fuel
	if fuel == nil {
		fuel = []models.FuelLog{}
	}
	respondWithMeta(w, fuel, &meta{Total: len(fuel), Period: string(p)})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	sl, p, ok := s.logs(w, r)
	if !ok {
		return
	}
	expenses := sl.Expenses
	if expenses == nil {
		expenses = []models.ExpenseLog{}
	}
	respondWithMeta(w, expenses, &meta{Total: len(expenses), Period: string(p)})
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var in models.TripInput
	if err := decode(r, &in); err != nil {
		respondFailure(w, err)
		return
	}
	l, err := s.svc.AddTrip(r.Context(), in)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, l)
}

func (s *Server) handleCreateFuel(w http.ResponseWriter, r *http.Request) {
	var in models.FuelInput
	if err := decode(r, &in); err != nil {
		respondFailure(w, err)
		return
	}
	f, err := s.svc.AddFuel(r.Context(), in)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, f)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in models.ExpenseInput
	if err := decode(r, &in); err != nil {
		respondFailure(w, err)
		return
	}
	e, err := s.svc.AddExpense(r.Context(), in)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, e)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, err := parser.ParseKind(q.Get("kind"))
	if err != nil {
		respondFailure(w, &models.ValidationError{Field: "kind", Message: err.Error()})
		return
	}
	format := q.Get("format")
	if format == "" {
		format = "json"
		if strings.Contains(r.Header.Get("Content-Type"), "csv") {
			format = "csv"
		}
	}

	batch, err := parser.NewParser(format, kind).Parse(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		respondFailure(w, &models.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	result, err := s.svc.Import(r.Context(), batch)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := s.svc.Alerts()
	respondWithMeta(w, alerts, &meta{Total: len(alerts)})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.svc.Dashboard())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	p, err := ledger.ParsePeriod(mux.Vars(r)["period"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithMeta(w, s.svc.Report(p), &meta{Period: string(p)})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	p, err := ledger.ParsePeriod(mux.Vars(r)["period"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	name, data, err := s.svc.ExportReport(p)
	if errors.Is(err, fleet.ErrExportFailed) {
		respondError(w, http.StatusInternalServerError, exportFailedMessage)
		return
	}
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondFile(w, export.ContentType, name, data)
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.svc.Backup()
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondFile(w, export.BackupContentType, name, data)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if err := s.svc.Restore(r.Context(), data); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"vehicles": len(s.svc.Vehicles())})
}

func (s *Server) handleSetSyncURL(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := decode(r, &body); err != nil {
		respondFailure(w, err)
		return
	}
	if err := s.svc.SetSyncURL(r.Context(), body.URL); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": s.svc.Snapshot().SyncURL})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.SyncAll(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"text": s.svc.Insights(r.Context())})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	image, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil || len(image) == 0 {
		respondError(w, http.StatusBadRequest, "receipt image is required")
		return
	}
	mimeType := r.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}

	draft := s.svc.ScanReceipt(r.Context(), image, mimeType, r.URL.Query().Get("vehicle_id"))
	if draft == nil {
		respondError(w, http.StatusUnprocessableEntity, "could not read receipt, please enter it manually")
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		respondError(w, http.StatusNotImplemented, "stats unavailable")
		return
	}
	stats, err := s.stats.GetStats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
