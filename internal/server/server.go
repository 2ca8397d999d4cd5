/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and wires the
assessment flow, session store and live-update hub to the router.
*/
package server

import (
	"fmt"
	"net/http"
	"time"

	"VitalScan/internal/config"
	"VitalScan/internal/dashboard"
	"VitalScan/internal/utility"
	"github.com/gorilla/sessions"
	"github.com/shirou/gopsutil/v4/host"
)

// Predictor is the risk model the server submits profiles to.
type Predictor interface {
	dashboard.Predictor
	Model() string
}

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	model    string
	store    *dashboard.Store
	assessor *dashboard.Assessor
	hub      *utility.Hub
	limiter  *utility.IPRateLimiter
	cookies  *sessions.CookieStore

	// runtime is the static host description reported by /health.
	runtime   map[string]interface{}
	startTime time.Time
}

// NewServer initializes a new Server instance and returns a configured *http.Server.
func NewServer(cfg *config.Config, predictor Predictor) (*http.Server, error) {
	newApp, err := newApp(cfg, predictor)
	if err != nil {
		return nil, err
	}

	// Configure the standard library http.Server with the application's router and timeouts.
	// WriteTimeout leaves room for every Gemini attempt plus backoff.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", newApp.port),
		Handler:      newApp.RegisterRoutes(), // Injected from routes.go
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout(cfg),
	}

	return server, nil
}

func newApp(cfg *config.Config, predictor Predictor) (*Server, error) {
	store, err := dashboard.NewStore(cfg.SessionCacheSize)
	if err != nil {
		return nil, err
	}
	limiter, err := utility.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}
	hub := utility.NewHub()

	return &Server{
		port:      cfg.Port,
		model:     predictor.Model(),
		store:     store,
		assessor:  dashboard.NewAssessor(predictor, hub),
		hub:       hub,
		limiter:   limiter,
		cookies:   newCookieStore(cfg),
		runtime:   hostRuntime(),
		startTime: time.Now(),
	}, nil
}

// hostRuntime describes the platform once at startup. The hostname is left out.
func hostRuntime() map[string]interface{} {
	hInfo, err := host.Info()
	if err != nil {
		return nil
	}
	return map[string]interface{}{
		"os":       hInfo.OS,
		"platform": hInfo.Platform,
		"arch":     hInfo.KernelArch,
	}
}

func writeTimeout(cfg *config.Config) time.Duration {
	attempts := time.Duration(max(cfg.GeminiMaxRetries, 1))
	backoff := cfg.GeminiInitialBackoff * ((1 << (attempts - 1)) - 1)
	return cfg.GeminiTimeout*attempts + backoff + 10*time.Second
}
