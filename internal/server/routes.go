package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"VitalScan/internal/config"
	"VitalScan/internal/dashboard"
	"VitalScan/internal/geminiservice"
	"VitalScan/internal/health"
	"VitalScan/internal/utility"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

const (
	sessionCookieName = "vitalscan_session"
	sessionIDKey      = "session_id"
	maxBodySize       = "64K"
)

// assessmentResponse is the body of every assessment endpoint.
type assessmentResponse struct {
	SessionID string          `json:"session_id"`
	State     dashboard.State `json:"state"`
	View      *dashboard.View `json:"view,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	// X-Forwarded-For is honoured only when the direct peer is a loopback,
	// link-local or private proxy.
	e.IPExtractor = echo.ExtractIPFromXFFHeader()
	e.Use(middleware.Recover())
	e.Use(LoggerMiddleware)
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger := utility.LoggerFromContext(c)
			event := logger.Info()
			if v.Error != nil {
				event = logger.Error().Err(v.Error)
			}
			event.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	e.Use(middleware.BodyLimit(maxBodySize))

	e.GET("/health", s.healthHandler)

	api := e.Group("/api")
	api.GET("/profile/defaults", s.profileDefaultsHandler)
	api.GET("/schema", s.schemaHandler)
	api.POST("/assessments", s.createAssessmentHandler)
	api.GET("/assessments/current", s.currentAssessmentHandler)
	api.DELETE("/assessments/current", s.resetAssessmentHandler)

	//Websocket for live dashboard updates
	e.GET("/ws", s.dashboardSocketHandler)

	return e
}

// LoggerMiddleware attaches a request-scoped logger carrying the request id,
// both to the echo context and to the request's context.Context.
func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()

		c.Set("logger", &logger)
		c.SetRequest(c.Request().WithContext(logger.WithContext(c.Request().Context())))

		return next(c)
	}
}

/* ====================================================================
                   		Service Handlers
==================================================================== */

// healthHandler reports service status with host runtime stats.
func (s *Server) healthHandler(c echo.Context) error {
	resp := map[string]interface{}{
		"status":     "online",
		"model":      s.model,
		"uptime":     time.Since(s.startTime).Round(time.Second).String(),
		"start_time": s.startTime.Format(time.RFC3339),
	}

	if s.runtime != nil {
		resp["runtime"] = s.runtime
	}
	// Interval 0 compares against the previous call instead of blocking.
	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		resp["cpu"] = map[string]interface{}{
			"usage_percent": fmt.Sprintf("%.2f%%", cpuPercent[0]),
		}
	}
	if v, err := mem.VirtualMemory(); err == nil {
		resp["memory"] = map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(v.Total)/1024/1024/1024),
			"used_gb":      fmt.Sprintf("%.2f GB", float64(v.Used)/1024/1024/1024),
			"used_percent": fmt.Sprintf("%.2f%%", v.UsedPercent),
		}
	}
	if d, err := disk.Usage("/"); err == nil {
		resp["disk"] = map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(d.Total)/1024/1024/1024),
			"used_percent": fmt.Sprintf("%.2f%%", d.UsedPercent),
		}
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) profileDefaultsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, health.DefaultProfile())
}

// schemaHandler exposes the response schema the model is bound to.
func (s *Server) schemaHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, geminiservice.RiskAssessmentSchema)
}

/* ====================================================================
                   		Assessment Handlers
==================================================================== */

// createAssessmentHandler validates the submitted profile and runs the
// assessment synchronously for the caller's session.
func (s *Server) createAssessmentHandler(c echo.Context) error {
	logger := utility.LoggerFromContext(c)

	ip := c.RealIP()
	if err := s.limiter.CheckIPRateLimit(ip); err != nil {
		logger.Warn().Str("ip", ip).Msg("Assessment rate limit exceeded")
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": err.Error()})
	}

	profile, err := bindProfile(c)
	if err != nil {
		logger.Info().Err(err).Msg("Rejected health profile")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	sess, err := s.currentSession(c)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to bind session cookie")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to start session"})
	}

	snap, err := s.assessor.Assess(c.Request().Context(), sess, profile)
	switch {
	case errors.Is(err, dashboard.ErrBusy):
		return c.JSON(http.StatusConflict, assessmentResponse{
			SessionID: snap.ID,
			State:     snap.State,
			Error:     err.Error(),
		})
	case err != nil:
		return c.JSON(http.StatusBadGateway, map[string]string{"error": dashboard.GenericFailureMessage})
	}

	return c.JSON(http.StatusOK, toResponse(snap))
}

func (s *Server) currentAssessmentHandler(c echo.Context) error {
	sess, err := s.currentSession(c)
	if err != nil {
		utility.LoggerFromContext(c).Error().Err(err).Msg("Failed to bind session cookie")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to start session"})
	}
	return c.JSON(http.StatusOK, toResponse(sess.Snapshot()))
}

func (s *Server) resetAssessmentHandler(c echo.Context) error {
	sess, err := s.currentSession(c)
	if err != nil {
		utility.LoggerFromContext(c).Error().Err(err).Msg("Failed to bind session cookie")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to start session"})
	}
	return c.JSON(http.StatusOK, toResponse(s.assessor.Reset(sess)))
}

// dashboardSocketHandler upgrades the connection and streams session events
// until the client goes away.
func (s *Server) dashboardSocketHandler(c echo.Context) error {
	sess, err := s.currentSession(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to start session"})
	}

	conn, err := utility.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		utility.LoggerFromContext(c).Error().Err(err).Msg("WebSocket upgrade failed")
		return nil
	}

	s.hub.RegisterClient(sess.ID(), conn)
	defer func() {
		s.hub.UnregisterClient(sess.ID(), conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

/* ====================================================================
                   		Helpers
==================================================================== */

// bindProfile reads a HealthProfile from a form post or a JSON body.
func bindProfile(c echo.Context) (health.HealthProfile, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)

	if strings.HasPrefix(contentType, echo.MIMEApplicationForm) || strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		form, err := c.FormParams()
		if err != nil {
			return health.HealthProfile{}, fmt.Errorf("%w: unreadable form: %w", health.ErrInvalidProfile, err)
		}
		return health.ParseForm(form)
	}

	return health.DecodeJSON(c.Request().Body)
}

// currentSession resolves the caller's session from the cookie, creating a
// fresh one (and setting the cookie) when it is missing or was evicted.
func (s *Server) currentSession(c echo.Context) (*dashboard.Session, error) {
	// A cookie that fails to decode still yields a usable new session.
	cookie, _ := s.cookies.Get(c.Request(), sessionCookieName)

	id, _ := cookie.Values[sessionIDKey].(string)
	sess := s.store.GetOrCreate(id)
	if sess.ID() == id {
		return sess, nil
	}

	cookie.Values[sessionIDKey] = sess.ID()
	if err := cookie.Save(c.Request(), c.Response()); err != nil {
		return nil, fmt.Errorf("failed to save session cookie: %w", err)
	}
	return sess, nil
}

func toResponse(snap dashboard.Snapshot) assessmentResponse {
	return assessmentResponse{
		SessionID: snap.ID,
		State:     snap.State,
		View:      snap.View,
		Error:     snap.Error,
	}
}

func newCookieStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options.Path = "/"
	store.Options.MaxAge = 86400
	store.Options.HttpOnly = true
	store.Options.Secure = !cfg.IsLocal()
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}
