// Package httpapi exposes the cart to the storefront UI as JSON over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/nikolayk812/partscart/internal/domain"
	"github.com/nikolayk812/partscart/internal/guest"
	"github.com/nikolayk812/partscart/internal/identity"
	"github.com/sirupsen/logrus"
)

const guestCookie = "guest_session"

type Cart interface {
	Add(ctx context.Context, productID uuid.UUID, quantity int) error
	Remove(ctx context.Context, productID uuid.UUID) error
	UpdateQuantity(ctx context.Context, productID uuid.UUID, quantity int) error
	Summary(ctx context.Context) (domain.Summary, error)
	Clear(ctx context.Context) error
	ReconcileOnSignIn(ctx context.Context) error
}

type Options struct {
	// GuestTTL is the lifetime of the guest session cookie.
	GuestTTL     time.Duration
	SecureCookie bool
}

type Server struct {
	cart Cart
	log  *logrus.Logger
	opts Options
}

func NewServer(cart Cart, log *logrus.Logger, opts Options) *Server {
	return &Server{cart: cart, log: log, opts: opts}
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.logRequests, s.shopper)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods(http.MethodGet)

	router.HandleFunc("/v1/cart", s.getCart).Methods(http.MethodGet)
	router.HandleFunc("/v1/cart", s.clearCart).Methods(http.MethodDelete)
	router.HandleFunc("/v1/cart/lines", s.addLine).Methods(http.MethodPost)
	router.HandleFunc("/v1/cart/lines/{productID}", s.updateLine).Methods(http.MethodPut)
	router.HandleFunc("/v1/cart/lines/{productID}", s.removeLine).Methods(http.MethodDelete)
	router.HandleFunc("/v1/cart/reconcile", s.reconcile).Methods(http.MethodPost)

	return router
}

type addLineRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  *int      `json:"quantity,omitempty"`
}

type updateLineRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	summary, err := s.cart.Summary(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

func (s *Server) addLine(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.ProductID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "product_id is required"})
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	if err := s.cart.Add(r.Context(), req.ProductID, quantity); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.getCart(w, r)
}

func (s *Server) updateLine(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathProductID(w, r)
	if !ok {
		return
	}

	var req updateLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	if err := s.cart.UpdateQuantity(r.Context(), productID, req.Quantity); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.getCart(w, r)
}

func (s *Server) removeLine(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathProductID(w, r)
	if !ok {
		return
	}

	if err := s.cart.Remove(r.Context(), productID); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := s.cart.Clear(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// reconcile is called by the storefront once, right after a successful sign-in.
func (s *Server) reconcile(w http.ResponseWriter, r *http.Request) {
	if err := s.cart.ReconcileOnSignIn(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.getCart(w, r)
}

// shopper attaches the bearer token and the guest session to the request
// context, issuing a guest session cookie on first visit.
func (s *Server) shopper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			ctx = identity.WithToken(ctx, strings.TrimSpace(token))
		}

		sessionID := ""
		if c, err := r.Cookie(guestCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				sessionID = c.Value
			}
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     guestCookie,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(s.opts.GuestTTL.Seconds()),
				HttpOnly: true,
				Secure:   s.opts.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx = guest.WithSession(ctx, sessionID)

		next.ServeHTTP(w, r.WithContext(ctx))
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

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("request served")
	})
}

func pathProductID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	productID, err := uuid.Parse(mux.Vars(r)["productID"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return uuid.Nil, false
	}
	return productID, true
}

// writeError keeps messages generic; the UI shows its own retry wording.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", r.URL.Path).Warn("cart operation failed")
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest, "quantity must be positive"
	case errors.Is(err, domain.ErrLineNotFound):
		return http.StatusNotFound, "product is not in the cart"
	case errors.Is(err, domain.ErrNotSignedIn):
		return http.StatusUnauthorized, "sign in required"
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout, "cart is not responding, please retry"
	case errors.Is(err, domain.ErrIdentityUnavailable):
		return http.StatusUnauthorized, "could not verify your session"
	case errors.Is(err, guest.ErrNoSession):
		return http.StatusBadRequest, "guest session is missing"
	case errors.Is(err, domain.ErrStoreWriteFailed),
		errors.Is(err, domain.ErrStoreReadFailed),
		errors.Is(err, domain.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable, "could not update cart, please retry"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
