package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"aura/config"
	"aura/internal/analytics"
	"aura/internal/database"
	"aura/internal/handlers"
	"aura/internal/middleware"

	"github.com/gorilla/mux"
)

const ticketTTL = time.Minute

// applyMiddleware wraps h so that m[0] runs first.
func applyMiddleware(h http.Handler, m ...func(http.Handler) http.Handler) http.Handler {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

// NewRouter registers every route of the API on a gorilla/mux router.
func NewRouter(cfg *config.Config, api *handlers.API) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(api.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(api.MethodNotAllowed)

	r.HandleFunc("/health", api.Health).Methods(http.MethodGet)
	r.HandleFunc("/auth/register", api.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", api.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", api.Logout).Methods(http.MethodPost)
	r.HandleFunc("/ws/analytics", api.AnalyticsStream).Methods(http.MethodGet)

	private := r.NewRoute().Subrouter()
	private.Use(middleware.RequireAuthMiddleware)

	private.HandleFunc("/auth/me", api.Me).Methods(http.MethodGet)

	private.HandleFunc("/api/users", api.SearchUsers).Methods(http.MethodGet)
	private.HandleFunc("/api/users/me", api.UpdateProfile).Methods(http.MethodPut)
	private.HandleFunc("/api/users/me/acquaintances", api.Acquaintances).Methods(http.MethodGet)
	private.HandleFunc("/api/users/{id:[0-9]+}", api.Profile).Methods(http.MethodGet)
	private.HandleFunc("/api/users/{id:[0-9]+}/acquaintance", api.RequestAcquaintance).Methods(http.MethodPost)
	private.HandleFunc("/api/users/{id:[0-9]+}/acquaintance", api.RemoveAcquaintance).Methods(http.MethodDelete)

	private.HandleFunc("/api/posts", api.Feed).Methods(http.MethodGet)
	private.HandleFunc("/api/posts", api.CreatePost).Methods(http.MethodPost)
	private.HandleFunc("/api/posts/reactions", api.ReactionStates).Methods(http.MethodGet)
	private.HandleFunc("/api/posts/{id:[0-9]+}", api.GetPost).Methods(http.MethodGet)
	private.HandleFunc("/api/posts/{id:[0-9]+}", api.DeletePost).Methods(http.MethodDelete)
	private.HandleFunc("/api/posts/{id:[0-9]+}/reactions", api.TogglePostReaction).Methods(http.MethodPost)
	private.HandleFunc("/api/posts/{id:[0-9]+}/comments", api.CreateComment).Methods(http.MethodPost)
	private.HandleFunc("/api/posts/{id:[0-9]+}/boost", api.BoostPost).Methods(http.MethodPost)
	private.HandleFunc("/api/comments/{id:[0-9]+}", api.DeleteComment).Methods(http.MethodDelete)

	private.HandleFunc("/api/messages/conversations", api.Conversations).Methods(http.MethodGet)
	private.HandleFunc("/api/messages/{userID:[0-9]+}", api.Thread).Methods(http.MethodGet)
	private.HandleFunc("/api/messages/{userID:[0-9]+}", api.SendMessage).Methods(http.MethodPost)

	private.HandleFunc("/api/privacy/settings", api.PrivacySettings).Methods(http.MethodGet)
	private.HandleFunc("/api/privacy/settings", api.UpdatePrivacySettings).Methods(http.MethodPut)
	private.HandleFunc("/api/privacy/blocks", api.BlockedUsers).Methods(http.MethodGet)
	private.HandleFunc("/api/privacy/blocks/{userID:[0-9]+}", api.Block).Methods(http.MethodPost)
	private.HandleFunc("/api/privacy/blocks/{userID:[0-9]+}", api.Unblock).Methods(http.MethodDelete)

	private.HandleFunc("/api/ads", api.ServeAds).Methods(http.MethodGet)
	private.HandleFunc("/api/ads", api.CreateAd).Methods(http.MethodPost)
	private.HandleFunc("/api/ads/mine", api.MyAds).Methods(http.MethodGet)
	private.HandleFunc("/api/ads/{id:[0-9]+}/status", api.SetAdStatus).Methods(http.MethodPut)
	private.HandleFunc("/api/ads/{id:[0-9]+}/reactions", api.ToggleAdReaction).Methods(http.MethodPost)
	private.HandleFunc("/api/ads/{id:[0-9]+}/click", api.AdClick).Methods(http.MethodPost)

	private.HandleFunc("/api/credits", api.Credits).Methods(http.MethodGet)
	private.HandleFunc("/api/credits/packages", api.CreditPackages).Methods(http.MethodGet)
	private.HandleFunc("/api/credits/purchase", api.PurchaseCredits).Methods(http.MethodPost)

	private.HandleFunc("/api/notifications", api.Notifications).Methods(http.MethodGet)
	private.HandleFunc("/api/notifications/read", api.MarkAllNotificationsRead).Methods(http.MethodPost)
	private.HandleFunc("/api/notifications/{id:[0-9]+}/read", api.MarkNotificationRead).Methods(http.MethodPost)

	private.HandleFunc("/api/analytics/summary", api.AnalyticsSummary).Methods(http.MethodGet)
	private.HandleFunc("/api/analytics/ticket", api.AnalyticsTicket).Methods(http.MethodPost)

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, time.Minute)
	return applyMiddleware(r,
		middleware.LoggerMiddleware,
		middleware.SecureHeadersMiddleware,
		middleware.MethodOverrideMiddleware,
		limiter.Middleware,
		middleware.AuthMiddleware,
	)
}

// StartServer runs the API until ctx is cancelled, then shuts down gracefully.
func StartServer(ctx context.Context, cfg *config.Config) error {
	go database.CleanupExpiredSessions(ctx, time.Hour)

	logger := log.New(os.Stdout, "", log.LstdFlags)
	hub := analytics.NewHub(log.New(os.Stdout, "analytics: ", log.LstdFlags))
	defer hub.Close()

	tickets, err := analytics.NewTicketIssuer(cfg.Security.Secret, ticketTTL)
	if err != nil {
		return err
	}

	api := handlers.New(cfg, hub, tickets, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      NewRouter(cfg, api),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on http://localhost%s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
