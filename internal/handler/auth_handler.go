package handler

import (
	"time"

	"foodway/internal/middleware"
	"foodway/internal/service"
	"foodway/internal/validator"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	auth        *middleware.Auth
	activity    service.ActivityService
	refreshTTL  time.Duration
	production  bool
}

func NewAuthHandler(
	authService service.AuthService,
	auth *middleware.Auth,
	activity service.ActivityService,
	refreshTTL time.Duration,
	production bool,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		auth:        auth,
		activity:    activity,
		refreshTTL:  refreshTTL,
		production:  production,
	}
}

// RegisterRoutes mounts the /auth endpoints
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
		auth.POST("/logout", h.auth.OptionalAuthenticate(), middleware.LogActivity(h.activity, service.ActionLogout, "user"), h.Logout)
		auth.GET("/status", h.auth.OptionalAuthenticate(), h.Status)

		auth.POST("/logout-all", h.auth.Authenticate(), middleware.LogActivity(h.activity, "logout_all", "user"), h.LogoutAll)
		auth.GET("/me", h.auth.Authenticate(), h.Me)
		auth.POST("/change-password", h.auth.Authenticate(), h.ChangePassword)
	}
}

// Login handles POST /auth/login
// @Summary      Login
// @Description  Authenticates by email and password and returns the user with a token pair. Browsers also receive auth cookies.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Credentials"
// @Success      200      {object}  response.Envelope{data=service.AuthResponse}
// @Failure      401      {object}  response.Envelope
// @Failure      422      {object}  response.Envelope
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req, clientOf(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	if middleware.IsBrowserRequest(c) {
		h.auth.SetTokenCookies(c, res.Tokens, res.User, h.refreshTTL)
	}
	ok(c, "Login realizado com sucesso", res)
}

// refreshToken reads the refresh token from the optional JSON body, then the cookie.
func refreshToken(c *gin.Context) (string, error) {
	var req service.RefreshTokenRequest
	if c.Request.ContentLength > 0 {
		if err := validator.BindJSON(c, &req); err != nil {
			return "", err
		}
	}
	if req.RefreshToken != "" {
		return req.RefreshToken, nil
	}
	token, _ := c.Cookie(middleware.RefreshTokenCookie)
	return token, nil
}

// Logout handles POST /auth/logout
// @Summary      Logout
// @Description  Revokes the supplied refresh token (body or cookie) and clears auth cookies. Always succeeds.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefreshTokenRequest  false  "Refresh token"
// @Success      200      {object}  response.Envelope
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := refreshToken(c)
	h.authService.Logout(c.Request.Context(), token)
	h.auth.ClearTokenCookies(c)
	ok(c, "Logout realizado com sucesso", nil)
}

// LogoutAll handles POST /auth/logout-all
// @Summary      Logout everywhere
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Envelope
// @Failure      401  {object}  response.Envelope
// @Router       /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	if err := h.authService.LogoutAll(c.Request.Context(), actorOf(c).UserID); err != nil {
		_ = c.Error(err)
		return
	}
	h.auth.ClearTokenCookies(c)
	ok(c, "Logout realizado em todos os dispositivos", nil)
}

// Refresh handles POST /auth/refresh
// @Summary      Rotate tokens
// @Description  Exchanges a valid refresh token for a new pair. The presented token is revoked.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefreshTokenRequest  false  "Refresh token"
// @Success      200      {object}  response.Envelope{data=service.AuthResponse}
// @Failure      401      {object}  response.Envelope
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := refreshToken(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	res, err := h.authService.Refresh(c.Request.Context(), token, clientOf(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	if middleware.IsBrowserRequest(c) {
		h.auth.SetTokenCookies(c, res.Tokens, res.User, h.refreshTTL)
	}
	ok(c, "Tokens atualizados com sucesso", res)
}

// Me handles GET /auth/me
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Envelope{data=service.UserResponse}
// @Failure      401  {object}  response.Envelope
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), actorOf(c).UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Dados do usuário obtidos com sucesso", user)
}

// Status handles GET /auth/status
// @Summary      Authentication status
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Envelope
// @Router       /auth/status [get]
func (h *AuthHandler) Status(c *gin.Context) {
	actor, authenticated := middleware.ActorFrom(c)
	if !authenticated {
		ok(c, "Status de autenticação", gin.H{"authenticated": false, "user": nil})
		return
	}

	user, err := h.authService.Me(c.Request.Context(), actor.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Status de autenticação", gin.H{"authenticated": true, "user": user})
}

// ForgotPassword handles POST /auth/forgot-password
// @Summary      Request password reset
// @Description  Always answers 200. Outside production the reset token is returned for testing.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ForgotPasswordRequest  true  "Email"
// @Success      200      {object}  response.Envelope
// @Failure      422      {object}  response.Envelope
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req service.ForgotPasswordRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	token, err := h.authService.ForgotPassword(c.Request.Context(), req, clientOf(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	var data any
	if token != "" && !h.production {
		data = gin.H{"reset_token": token}
	}
	ok(c, "Se o email existir, você receberá instruções para redefinir sua senha", data)
}

// ResetPassword handles POST /auth/reset-password
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ResetPasswordRequest  true  "Reset token and new password"
// @Success      200      {object}  response.Envelope
// @Failure      401      {object}  response.Envelope
// @Failure      422      {object}  response.Envelope
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req service.ResetPasswordRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req); err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, "Senha redefinida com sucesso. Faça login novamente.", nil)
}

// ChangePassword handles POST /auth/change-password
// @Summary      Change password
// @Description  Requires the current password. Every session of the user is revoked.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ChangePasswordRequest  true  "Passwords"
// @Success      200      {object}  response.Envelope
// @Failure      401      {object}  response.Envelope
// @Failure      422      {object}  response.Envelope
// @Router       /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req service.ChangePasswordRequest
	if err := validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), actorOf(c), req); err != nil {
		_ = c.Error(err)
		return
	}
	h.auth.ClearTokenCookies(c)
	ok(c, "Senha alterada com sucesso. Faça login novamente.", nil)
}
