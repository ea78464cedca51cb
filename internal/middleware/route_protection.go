package middleware

import (
	"errors"
	"net/http"
	"net/url"

	"foodway/internal/apperror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const forbiddenPage = `<!DOCTYPE html>
<html>
<head>
<title>Acesso Negado</title>
<style>
body { font-family: Arial, sans-serif; text-align: center; margin-top: 50px; background: #f5f5f5; }
.container { background: white; padding: 40px; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); display: inline-block; }
.error-code { font-size: 4rem; color: #FF5722; margin-bottom: 20px; }
h1 { color: #333; margin-bottom: 20px; }
p { color: #666; margin-bottom: 30px; }
.btn { background: #FF5722; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; display: inline-block; }
</style>
</head>
<body>
<div class="container">
<div class="error-code">403</div>
<h1>Acesso Negado</h1>
<p>Você precisa ser um Super Administrador para acessar esta página.</p>
<a href="/login" class="btn">Fazer Login</a>
</div>
</body>
</html>`

// ProtectRoute guards HTML pages: callers without a usable token are
// redirected to the login page instead of receiving a JSON error.
func (a *Auth) ProtectRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.Redirect(http.StatusFound, "/login?redirect="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}

		actor, err := a.authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			a.ClearTokenCookies(c)
			c.Redirect(http.StatusFound, "/login?error="+redirectReason(err))
			c.Abort()
			return
		}
		a.setActor(c, actor, token)
		c.Next()
	}
}

func redirectReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case apperror.Is(err, apperror.KindUnauthorized):
		if appErr, _ := apperror.As(err); appErr.Message == "Usuário inativo" {
			return "inactive"
		}
	}
	return "invalid"
}

// RequireSuperAdminRoute answers 403 with an HTML page for non super admins.
func RequireSuperAdminRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok || !actor.IsSuperAdmin() {
			c.Data(http.StatusForbidden, "text/html; charset=utf-8", []byte(forbiddenPage))
			c.Abort()
			return
		}
		c.Next()
	}
}
