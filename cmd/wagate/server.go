package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"wagate/internal/errors"
	"wagate/internal/middleware"
	"wagate/internal/models"
	"wagate/internal/service"
)

type Server struct {
	router     *mux.Router
	logger     *logrus.Logger
	gateway    service.Gateway
	escalation service.EscalationService
	server     *http.Server
}

func NewServer(cfg models.ServerConfig, gateway service.Gateway, escalation service.EscalationService, logger *logrus.Logger) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		logger:     logger,
		gateway:    gateway,
		escalation: escalation,
	}

	s.router.Use(middleware.Observability(logger))
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSec) * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/webhooks/whatsapp", s.handleWhatsAppWebhook()).Methods(http.MethodPost)
	s.router.HandleFunc("/internal/notify/escalation", s.handleEscalation()).Methods(http.MethodPost)
}

func (s *Server) Start() error {
	s.logger.WithField("addr", s.server.Addr).Info("Starting HTTP server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// handleWhatsAppWebhook acknowledges the provider synchronously and runs the
// pipeline on a detached goroutine. The provider has a short response budget
// and redelivers on timeout, so nothing slow may happen before the 200.
func (s *Server) handleWhatsAppWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload models.ProviderWebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, models.WebhookResponse{
				Status:  "error",
				Message: "invalid JSON payload",
			})
			return
		}

		ev := models.FromWebhook(&payload)
		accepted, err := s.gateway.Accept(r.Context(), ev)
		if err != nil {
			if errors.GetCode(err) == errors.ErrCodeInvalidInput {
				writeJSON(w, http.StatusBadRequest, models.WebhookResponse{
					Status:  "error",
					Message: err.Error(),
				})
				return
			}
			// Resolution-store outage: fail closed so the provider retries
			// the delivery.
			s.logger.WithError(err).Error("Failed to accept webhook event")
			writeJSON(w, http.StatusInternalServerError, models.WebhookResponse{
				Status:  "error",
				Message: "temporary failure, please retry",
			})
			return
		}

		if accepted != nil {
			go func() {
				defer func() {
					if rec := recover(); rec != nil {
						s.logger.WithField("panic", rec).Error("Recovered from panic during event processing")
					}
				}()
				s.gateway.Process(context.Background(), accepted)
			}()
		}

		writeJSON(w, http.StatusOK, models.WebhookResponse{
			Status:  "ok",
			Message: "event accepted",
		})
	}
}

func (s *Server) handleEscalation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.EscalationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"success": false,
				"message": "invalid JSON payload",
			})
			return
		}

		if err := s.escalation.Escalate(r.Context(), &req); err != nil {
			status := http.StatusInternalServerError
			switch errors.GetCode(err) {
			case errors.ErrCodeInvalidInput:
				status = http.StatusBadRequest
			case errors.ErrCodeTenantNotFound:
				status = http.StatusNotFound
			}
			s.logger.WithError(err).Error("Escalation request failed")
			writeJSON(w, status, map[string]interface{}{
				"success": false,
				"message": err.Error(),
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
