package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mindhaven/internal/auth"
	"mindhaven/internal/completion"
	"mindhaven/internal/logger"
	"mindhaven/internal/service/conversation"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Handler wires HTTP routes to the conversation service and the completer.
type Handler struct {
	conversations *conversation.Service
	completer     conversation.Completer
	auth          *auth.Service
	log           *logger.Logger
	checks        map[string]HealthCheck
}

// NewHandler constructs a Handler instance.
func NewHandler(conversations *conversation.Service, completer conversation.Completer, authService *auth.Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		conversations: conversations,
		completer:     completer,
		auth:          authService,
		log:           log.With("component", "api"),
		checks:        make(map[string]HealthCheck),
	}
}

// AddHealthCheck registers a dependency probe reported by /healthz.
func (h *Handler) AddHealthCheck(name string, check HealthCheck) {
	if check != nil {
		h.checks[name] = check
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.healthz)

	api := router.Group("/api")
	api.POST("/users/register", h.registerUser)
	api.POST("/users/login", h.loginUser)

	authMW := h.auth.Middleware()
	api.POST("/completions", authMW, h.auth.CSRFMiddleware(), h.complete)

	userRoutes := api.Group("/users/:id")
	userRoutes.Use(authMW, auth.RequirePathUser("id"), h.auth.CSRFMiddleware())
	userRoutes.GET("/sessions", h.listSessions)
	userRoutes.POST("/sessions", h.createSession)
	userRoutes.DELETE("/sessions/:session_id", h.deleteSession)
	userRoutes.GET("/sessions/:session_id/messages", h.listMessages)
	userRoutes.POST("/sessions/:session_id/messages", h.sendMessage)
	userRoutes.POST("/sessions/:session_id/summary", h.summarize)
	userRoutes.POST("/logout", h.logoutUser)
	userRoutes.DELETE("", h.deleteUser)
}

func (h *Handler) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	status := http.StatusOK
	results := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn("health check failed", "check", name, "error", err)
			results[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": results})
}

type completionRequest struct {
	Message *string `json:"message"`
	Type    string  `json:"type"`
}

// complete is the stateless completion endpoint: one prompt in, one
// normalized result out.
func (h *Handler) complete(c *gin.Context) {
	var req completionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Message == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	kind, err := completion.ParseKind(req.Type)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	res, err := h.completer.Complete(c.Request.Context(), completion.Request{Kind: kind, Text: *req.Message})
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	if kind == completion.KindSummary {
		c.JSON(http.StatusOK, gin.H{"summary": res.Summary})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"response":           res.Response,
		"emotional_analysis": res.EmotionalAnalysis,
	})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) registerUser(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.conversations.RegisterUser(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"created_at": user.CreatedAt,
	})
}

func (h *Handler) loginUser(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.conversations.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	authToken, err := h.auth.IssueToken(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	csrfToken, err := h.auth.NewCSRFToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	h.setAuthCookies(c, authToken, csrfToken)
	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"created_at": user.CreatedAt,
		"auth_token": authToken,
		"csrf_token": csrfToken,
	})
}

func (h *Handler) listSessions(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessions, err := h.conversations.ListSessions(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *Handler) createSession(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	session, err := h.conversations.CreateSession(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (h *Handler) deleteSession(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	if err := h.conversations.DeleteSession(c.Request.Context(), userID, sessionID); err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listMessages(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	messages, err := h.conversations.ListMessages(c.Request.Context(), userID, sessionID)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	exchange, err := h.conversations.SendMessage(c.Request.Context(), userID, sessionID, req.Message)
	if err != nil {
		var extra gin.H
		if exchange != nil && exchange.UserMessage != nil {
			extra = gin.H{"user_message": exchange.UserMessage}
		}
		h.writeError(c, err, extra)
		return
	}
	c.JSON(http.StatusOK, exchange)
}

func (h *Handler) summarize(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	res, err := h.conversations.Summarize(c.Request.Context(), userID, sessionID)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": res.SummaryText()})
}

func (h *Handler) logoutUser(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	if authToken, ok := auth.AuthTokenFromContext(c); ok {
		if err := h.auth.RevokeToken(c.Request.Context(), authToken); err != nil {
			h.log.Warn("revoke token on logout failed", "error", err)
		}
	}
	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	if err := h.auth.RevokeUserTokens(c.Request.Context(), id); err != nil {
		h.writeError(c, err, nil)
		return
	}
	if err := h.conversations.DeleteUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.writeError(c, err, nil)
		return
	}
	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

func (h *Handler) authorizedUserID(c *gin.Context) (int64, bool) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok || userID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return 0, false
	}
	return userID, true
}

func sessionIDParam(c *gin.Context) (int64, bool) {
	sessionID, err := strconv.ParseInt(strings.TrimSpace(c.Param("session_id")), 10, 64)
	if err != nil || sessionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return 0, false
	}
	return sessionID, true
}

func (h *Handler) setAuthCookies(c *gin.Context, authToken, csrfToken string) {
	ttl := int(h.auth.TokenTTL().Seconds())
	if ttl <= 0 {
		ttl = 3600
	}
	secure := gin.Mode() == gin.ReleaseMode
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.auth.AuthCookieName(),
		Value:    authToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.auth.CSRFCookieName(),
		Value:    csrfToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	for _, name := range []string{h.auth.AuthCookieName(), h.auth.CSRFCookieName()} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			Path:     "/",
			Secure:   gin.Mode() == gin.ReleaseMode,
			HttpOnly: name == h.auth.AuthCookieName(),
			SameSite: http.SameSiteStrictMode,
		})
	}
}
