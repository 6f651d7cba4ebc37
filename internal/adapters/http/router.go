package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dkeye/rclass/internal/adapters/signal"
	"github.com/dkeye/rclass/internal/app/orch"
	"github.com/dkeye/rclass/internal/config"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	sessionName    = "rclass_session"
	sessionAccount = "account"
	clientToken    = "client_token"
)

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set(clientToken, token)
		c.Next()
	}
}

type api struct {
	orch *orch.Orchestrator
	ctrl *signal.SignalWSController
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, ctrl *signal.SignalWSController) *gin.Engine {
	switch cfg.Mode {
	case gin.ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	if cfg.Mode == gin.DebugMode {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(ClientTokenMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	a := &api{orch: o, ctrl: ctrl}
	r.GET("/healthz", a.health)

	g := r.Group("/api")
	g.GET("/rooms", a.rooms)
	g.POST("/login", a.login)
	g.POST("/register", a.register)
	g.POST("/guest", a.guest)
	g.POST("/logout", a.logout)
	g.GET("/me", a.me)
	g.GET("/attendance/me", a.myAttendance)
	g.GET("/attendance/rooms/:id", a.roomAttendance)
	g.GET("/ws/signal", func(c *gin.Context) {
		acc, _ := sessionAccountOf(c)
		ctrl.HandleSignal(ctx, c, acc)
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}

func sessionAccountOf(c *gin.Context) (*domain.Account, bool) {
	raw, ok := sessions.Default(c).Get(sessionAccount).(string)
	if !ok || raw == "" {
		return nil, false
	}
	var acc domain.Account
	if err := json.Unmarshal([]byte(raw), &acc); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("drop malformed session")
		return nil, false
	}
	return &acc, true
}

func saveAccount(c *gin.Context, acc *domain.Account) error {
	raw, err := json.Marshal(acc)
	if err != nil {
		return err
	}
	s := sessions.Default(c)
	s.Set(sessionAccount, string(raw))
	return s.Save()
}

// fail writes the same error text a signal response would carry.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrLoginRequired), errors.Is(err, domain.ErrInvalidCredential):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrGuestForbidden), errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrNotCreator):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNoAttendance), errors.Is(err, domain.ErrAccountExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrBadPayload), errors.Is(err, domain.ErrUsernameEmpty), errors.Is(err, domain.ErrUsernameTooLong):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"result": false, "data": domain.Reason(err)})
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"result": true, "data": data})
}
