package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"foodway/internal/apperror"
	"foodway/internal/model"
	"foodway/internal/repository"
	"foodway/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	actorKey = "actor"
	tokenKey = "access_token"

	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	UserInfoCookie     = "user_info"

	msgTokenMissing     = "Token de acesso não fornecido"
	msgTokenInvalid     = "Token inválido"
	msgTokenExpired     = "Token expirado"
	msgNotAuthenticated = "Usuário não autenticado"
)

// Authenticator resolves an access token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*service.Actor, error)
}

// Auth builds the authentication and authorization middleware.
type Auth struct {
	authenticator Authenticator
	secureCookies bool
}

func NewAuth(authenticator Authenticator, secureCookies bool) *Auth {
	return &Auth{authenticator: authenticator, secureCookies: secureCookies}
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// BearerToken reads the access token from the Authorization header, then the cookie.
func BearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie
	}
	return ""
}

// tokenError maps token parsing failures to client messages.
func tokenError(err error) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	if errors.Is(err, jwt.ErrTokenExpired) {
		return apperror.Unauthorized(msgTokenExpired)
	}
	return apperror.Unauthorized(msgTokenInvalid)
}

func (a *Auth) setActor(c *gin.Context, actor *service.Actor, token string) {
	actor.IP = c.ClientIP()
	actor.UserAgent = c.Request.UserAgent()
	c.Set(actorKey, *actor)
	c.Set(tokenKey, token)
	c.Request = c.Request.WithContext(repository.WithIdentity(c.Request.Context(), actor.Identity()))
}

// Authenticate rejects requests without a valid access token of an active user.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			abort(c, apperror.Unauthorized(msgTokenMissing))
			return
		}

		actor, err := a.authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			abort(c, tokenError(err))
			return
		}
		a.setActor(c, actor, token)
		c.Next()
	}
}

// OptionalAuthenticate attaches the caller when a valid token is present and never rejects.
func (a *Auth) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := BearerToken(c); token != "" {
			if actor, err := a.authenticator.Authenticate(c.Request.Context(), token); err == nil {
				a.setActor(c, actor, token)
			}
		}
		c.Next()
	}
}

// ActorFrom returns the authenticated caller, if any.
func ActorFrom(c *gin.Context) (service.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return service.Actor{}, false
	}
	actor, ok := v.(service.Actor)
	return actor, ok
}

// RequireSuperAdmin only lets super admins through.
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abort(c, apperror.Unauthorized(msgNotAuthenticated))
			return
		}
		if !actor.IsSuperAdmin() {
			abort(c, apperror.Unauthorized("Acesso negado. Apenas super administradores."))
			return
		}
		c.Next()
	}
}

// RequireRoles lets through callers holding one of roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abort(c, apperror.Unauthorized(msgNotAuthenticated))
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		abort(c, apperror.Unauthorized("Acesso negado. Roles permitidos: "+strings.Join(roles, ", ")))
	}
}

// RequireRestaurantAccess checks the caller against the restaurant id in the param path segment.
func RequireRestaurantAccess(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abort(c, apperror.Unauthorized(msgNotAuthenticated))
			return
		}

		raw := c.Param(param)
		if raw == "" {
			abort(c, apperror.Validation("ID do restaurante não fornecido"))
			return
		}
		if actor.IsSuperAdmin() {
			c.Next()
			return
		}
		if actor.Role != model.RoleRestaurantUser {
			abort(c, apperror.Unauthorized("Role de usuário não reconhecido"))
			return
		}

		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || !actor.CanAccessRestaurant(uint(id)) {
			abort(c, apperror.Unauthorized("Acesso negado a este restaurante"))
			return
		}
		c.Next()
	}
}

// RequireUserManagement guards user administration.
func RequireUserManagement() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abort(c, apperror.Unauthorized(msgNotAuthenticated))
			return
		}
		if !actor.IsSuperAdmin() {
			abort(c, apperror.Unauthorized("Acesso negado. Apenas super administradores podem gerenciar usuários."))
			return
		}
		c.Next()
	}
}

// RequireSelfOrAdmin lets a user reach only their own record unless they are a super admin.
func RequireSelfOrAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abort(c, apperror.Unauthorized(msgNotAuthenticated))
			return
		}
		if actor.IsSuperAdmin() {
			c.Next()
			return
		}

		raw := c.Param("id")
		if raw == "" {
			raw = c.Param("user_id")
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || uint(id) != actor.UserID {
			abort(c, apperror.Unauthorized("Acesso negado. Você só pode acessar seus próprios dados."))
			return
		}
		c.Next()
	}
}

// IsBrowserRequest classifies requests that should receive auth cookies.
func IsBrowserRequest(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html") ||
		strings.Contains(c.Request.UserAgent(), "Mozilla")
}

type userInfo struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// SetTokenCookies stores the token pair and a readable user summary as cookies.
func (a *Auth) SetTokenCookies(c *gin.Context, pair *service.TokenPair, user *service.UserResponse, refreshTTL time.Duration) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessTokenCookie, pair.AccessToken, int(pair.ExpiresIn), "/", "", a.secureCookies, true)
	c.SetCookie(RefreshTokenCookie, pair.RefreshToken, int(refreshTTL.Seconds()), "/", "", a.secureCookies, true)

	if user != nil {
		info, err := json.Marshal(userInfo{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role})
		if err == nil {
			c.SetCookie(UserInfoCookie, string(info), int(pair.ExpiresIn), "/", "", a.secureCookies, false)
		}
	}
}

// ClearTokenCookies expires every auth cookie.
func (a *Auth) ClearTokenCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", a.secureCookies, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", a.secureCookies, true)
	c.SetCookie(UserInfoCookie, "", -1, "/", "", a.secureCookies, false)
}
