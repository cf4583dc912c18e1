package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"fuelrecon-backend/internal/config"
	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/metrics"
	"fuelrecon-backend/internal/security"
	"fuelrecon-backend/internal/service"
)

const maxBodyBytes = 1 << 20

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	readings        service.ReadingService
	reconciliations service.ReconciliationService
	credit          service.CreditService
	store           Pinger
	tokens          security.TokenManager
}

func NewServer(
	readings service.ReadingService,
	reconciliations service.ReconciliationService,
	credit service.CreditService,
	store Pinger,
	tokens security.TokenManager,
) *Server {
	return &Server{
		readings:        readings,
		reconciliations: reconciliations,
		credit:          credit,
		store:           store,
		tokens:          tokens,
	}
}

// Router registers every route under its security-config name.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(observeMiddleware, authMiddleware(s.tokens))

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet).Name(config.RouteHealth)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet).Name(config.RouteMetrics)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/readings", s.handleSubmitReading).Methods(http.MethodPost).Name(config.RouteSubmitReading)
	v1.HandleFunc("/readings/{id:[0-9]+}/void", s.handleVoidReading).Methods(http.MethodPost).Name(config.RouteVoidReading)
	v1.HandleFunc("/cash-reports", s.handleSubmitCashReport).Methods(http.MethodPost).Name(config.RouteSubmitCashReport)

	day := "/stations/{stationID:[0-9]+}/reconciliations/{date}"
	v1.HandleFunc(day, s.handleGetReconciliation).Methods(http.MethodGet).Name(config.RouteGetReconciliation)
	v1.HandleFunc(day+"/run", s.handleRunReconciliation).Methods(http.MethodPost).Name(config.RouteRunReconciliation)
	v1.HandleFunc(day+"/close", s.handleCloseDay).Methods(http.MethodPost).Name(config.RouteCloseDay)

	v1.HandleFunc("/creditors/{id:[0-9]+}/balance", s.handleCreditorBalance).Methods(http.MethodGet).Name(config.RouteCreditorBalance)
	v1.HandleFunc("/creditors/{id:[0-9]+}/payments", s.handleRecordPayment).Methods(http.MethodPost).Name(config.RouteRecordCreditPayment)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmitReading(w http.ResponseWriter, r *http.Request) {
	auth, _ := AuthFromContext(r.Context())
	var req service.SubmitReadingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	outcome, err := s.readings.SubmitReading(r.Context(), auth, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, outcome)
}

type voidRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleVoidReading(w http.ResponseWriter, r *http.Request) {
	auth, _ := AuthFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req voidRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.readings.VoidReading(r.Context(), auth, id, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSubmitCashReport(w http.ResponseWriter, r *http.Request) {
	auth, _ := AuthFromContext(r.Context())
	var req service.CashReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	outcome, err := s.reconciliations.SubmitCashReport(r.Context(), auth, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, outcome)
}

type dayHandler func(ctx context.Context, auth domain.AuthContext, stationID int64, date string) (*domain.ReconciliationResult, error)

func (s *Server) serveDay(w http.ResponseWriter, r *http.Request, fn dayHandler) {
	auth, _ := AuthFromContext(r.Context())
	stationID, err := pathID(r, "stationID")
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := fn(r.Context(), auth, stationID, mux.Vars(r)["date"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetReconciliation(w http.ResponseWriter, r *http.Request) {
	s.serveDay(w, r, s.reconciliations.GetReconciliation)
}

func (s *Server) handleRunReconciliation(w http.ResponseWriter, r *http.Request) {
	s.serveDay(w, r, s.reconciliations.RunReconciliation)
}

func (s *Server) handleCloseDay(w http.ResponseWriter, r *http.Request) {
	s.serveDay(w, r, s.reconciliations.CloseDayReconciliation)
}

func (s *Server) handleCreditorBalance(w http.ResponseWriter, r *http.Request) {
	auth, _ := AuthFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	balance, err := s.credit.GetBalance(r.Context(), auth, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	auth, _ := AuthFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req service.RecordPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.CreditorID = id
	payment, err := s.credit.RecordPayment(r.Context(), auth, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad %s", domain.ErrInvalidInput, name)
	}
	return id, nil
}
