package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/vastralabs/photoshoot/internal/catalog"
	"github.com/vastralabs/photoshoot/internal/models"
	"github.com/vastralabs/photoshoot/internal/service"
)

type contextKey string

const userIDKey contextKey = "userID"

// Server is the HTTP boundary. Authentication happens upstream at the
// identity provider; callers arrive with a stable user id in X-User-ID.
type Server struct {
	addr          string
	adminUsername string
	adminPassword string
	log           *slog.Logger
	validate      *validator.Validate
	users         *service.UserService
	generations   *service.GenerationService
	payments      *service.PaymentService
	exports       *service.ExportService
	stats         *service.StatsService
	router        *chi.Mux
}

func NewServer(addr, adminUsername, adminPassword string, log *slog.Logger, users *service.UserService, generations *service.GenerationService, payments *service.PaymentService, exports *service.ExportService, stats *service.StatsService) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:          addr,
		adminUsername: adminUsername,
		adminPassword: adminPassword,
		log:           log,
		validate:      validator.New(),
		users:         users,
		generations:   generations,
		payments:      payments,
		exports:       exports,
		stats:         stats,
		router:        r,
	}

	r.Get("/api/catalog", s.handleCatalog)
	r.Group(func(authed chi.Router) {
		authed.Use(s.identityMiddleware)
		authed.Post("/api/generate", s.handleGenerate)
		authed.Get("/api/credits", s.handleCredits)
		authed.Post("/api/payments", s.handleCreatePayment)
		authed.Put("/api/payments", s.handleConfirmPayment)
		authed.Post("/api/export", s.handleExport)
	})
	r.Group(func(admin chi.Router) {
		admin.Use(s.basicAuthMiddleware())
		admin.Post("/admin/adjustments", s.handleAdjustment)
		admin.Get("/admin/stats", s.handleStats)
	})
	return s
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // generation requests wait on the synthesis join
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("server shutdown error", "err", err)
		}
	}()

	s.log.Info("api listening", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api listen: %w", err)
	}
	return nil
}

// identityMiddleware trusts the upstream identity provider's user id and
// creates the account on first sight.
func (s *Server) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			s.writeError(w, http.StatusUnauthorized, "missing user identity")
			return
		}
		if _, err := s.users.Ensure(r.Context(), userID); err != nil {
			s.log.Error("ensure user", "user", userID, "err", err)
			s.writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) basicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != s.adminUsername || pass != s.adminPassword {
				w.Header().Set("WWW-Authenticate", `Basic realm="photoshoot"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

type generateRequest struct {
	ProductRef string `json:"productRef" validate:"required"`
	ModelID    string `json:"modelId" validate:"required"`
	PoseID     string `json:"poseId" validate:"required"`
	SceneID    string `json:"sceneId"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.generations.Generate(r.Context(), userID(r), service.GenerateRequest{
		ProductRef: req.ProductRef,
		ModelID:    req.ModelID,
		PoseID:     req.PoseID,
		SceneID:    req.SceneID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"generationId":   result.GenerationID,
		"images":         result.Images,
		"prompt":         result.Prompt,
		"model":          result.ModelName,
		"pose":           result.PoseName,
		"scene":          result.SceneName,
		"requested":      result.Requested,
		"succeeded":      result.Succeeded,
		"partial":        result.Partial,
		"creditsCharged": result.CreditsCharged,
	})
}

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	overview, err := s.users.Overview(r.Context(), userID(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	history := make([]map[string]any, 0, len(overview.History))
	for _, tx := range overview.History {
		history = append(history, map[string]any{
			"delta":         tx.Delta,
			"reason":        tx.Reason,
			"correlationId": tx.CorrelationID,
			"createdAt":     tx.CreatedAt,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"credits":      overview.Credits,
		"subscription": overview.Plan,
		"usageHistory": history,
	})
}

type createPaymentRequest struct {
	Amount  int `json:"amount" validate:"required,gt=0"`
	Credits int `json:"credits" validate:"required,gt=0"`
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.payments.CreateOrder(r.Context(), userID(r), req.Amount, req.Credits)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"success":    true,
		"purchaseId": result.OrderID,
		"order": map[string]any{
			"id":       result.GatewayOrderID,
			"amount":   result.Amount,
			"currency": result.Currency,
			"receipt":  result.Receipt,
		},
	})
}

type confirmPaymentRequest struct {
	PurchaseID string `json:"purchaseId" validate:"required"`
	PaymentID  string `json:"paymentId" validate:"required"`
}

func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	balance, err := s.payments.ConfirmPayment(r.Context(), req.PurchaseID, req.PaymentID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Payment verified and credits added",
		"newBalance": balance,
	})
}

type exportRequest struct {
	ImageURL string `json:"imageUrl" validate:"required"`
	Profile  string `json:"profile" validate:"required"`
	Width    int    `json:"width" validate:"gte=0"`
	Height   int    `json:"height" validate:"gte=0"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.exports.Export(r.Context(), req.ImageURL, req.Profile, req.Width, req.Height)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"models":   catalog.Models(),
		"poses":    catalog.Poses(),
		"scenes":   catalog.Scenes(),
		"profiles": service.Profiles(),
	})
}

type adjustmentRequest struct {
	UserID string `json:"userId" validate:"required"`
	Delta  int    `json:"delta" validate:"required"`
	Note   string `json:"note"`
}

func (s *Server) handleAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	balance, err := s.users.Adjust(r.Context(), req.UserID, req.Delta, req.Note)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"newBalance": balance,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Collect(r.Context())
	if err != nil {
		s.log.Error("collect stats", "err", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("validation failed: %v", err))
		return false
	}
	return true
}

// writeDomainError maps the core error taxonomy onto HTTP statuses so the
// client can tell "top up" apart from "try again".
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInsufficientCredits):
		s.writeErrorCode(w, http.StatusPaymentRequired, "insufficient_credits", "Insufficient credits")
	case errors.Is(err, models.ErrGenerationFailed):
		s.writeErrorCode(w, http.StatusBadGateway, "generation_failed", "Failed to generate any images")
	case errors.Is(err, models.ErrVerificationFailed):
		s.writeErrorCode(w, http.StatusBadRequest, "verification_failed", "Payment verification failed")
	case errors.Is(err, models.ErrDuplicateOrder):
		s.writeErrorCode(w, http.StatusConflict, "duplicate_order", "Order already exists")
	case errors.Is(err, models.ErrInvalidTransition), errors.Is(err, models.ErrDuplicateCredit):
		s.log.Error("order state violation", "path", r.URL.Path, "err", err)
		s.writeErrorCode(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, models.ErrOrderNotFound):
		s.writeErrorCode(w, http.StatusNotFound, "order_not_found", "Order not found")
	case errors.Is(err, models.ErrUnknownProfile):
		s.writeErrorCode(w, http.StatusBadRequest, "unknown_profile", err.Error())
	case errors.Is(err, models.ErrSourceUnavailable):
		s.writeErrorCode(w, http.StatusNotFound, "source_unavailable", "Source image unavailable")
	default:
		s.log.Error("handler error", "path", r.URL.Path, "err", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]any{
		"success": false,
		"error":   msg,
	})
}

func (s *Server) writeErrorCode(w http.ResponseWriter, status int, code, msg string) {
	s.writeJSON(w, status, map[string]any{
		"success": false,
		"code":    code,
		"error":   msg,
	})
}
