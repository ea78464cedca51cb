package handler

import (
	"bytes"
	"html/template"
	"net/http"

	"foodway/internal/middleware"
	"foodway/internal/service"

	"github.com/gin-gonic/gin"
)

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Login - Restaurant Menu API</title>
<style>
body { font-family: Arial, sans-serif; background: #f5f5f5; display: flex; justify-content: center; margin-top: 80px; }
form { background: white; padding: 32px; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); width: 320px; }
input { width: 100%; padding: 10px; margin-bottom: 16px; box-sizing: border-box; }
button { background: #FF5722; color: white; border: 0; padding: 12px; width: 100%; border-radius: 5px; cursor: pointer; }
.error { color: #c62828; margin-bottom: 16px; }
</style>
</head>
<body>
<form id="login">
<h2>Entrar</h2>
{{if .Error}}<div class="error">{{.Error}}</div>{{end}}
<input type="email" name="email" placeholder="Email" required>
<input type="password" name="password" placeholder="Senha" required>
<button type="submit">Entrar</button>
</form>
<script>
document.getElementById('login').addEventListener('submit', async function (e) {
  e.preventDefault();
  const res = await fetch('/api/v1/auth/login', {
    method: 'POST',
    credentials: 'same-origin',
    headers: { 'Content-Type': 'application/json', 'Accept': 'text/html, application/json' },
    body: JSON.stringify({ email: this.email.value, password: this.password.value })
  });
  if (res.ok) { window.location.href = {{.Redirect}}; return; }
  const body = await res.json();
  alert(body.message);
});
</script>
</body>
</html>`))

var adminTemplate = template.Must(template.New("admin").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Painel Administrativo</title>
<style>
body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 40px; }
.card { background: white; padding: 24px; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); margin-bottom: 20px; }
td { padding: 4px 16px 4px 0; }
</style>
</head>
<body>
<div class="card">
<h1>Painel Administrativo</h1>
<p>Olá, {{.Name}} ({{.Email}})</p>
</div>
<div class="card">
<h2>Restaurantes</h2>
<table>
<tr><td>Total</td><td>{{.Restaurants.Total}}</td></tr>
<tr><td>Ativos</td><td>{{.Restaurants.Active}}</td></tr>
<tr><td>Inativos</td><td>{{.Restaurants.Inactive}}</td></tr>
</table>
</div>
<div class="card">
<h2>Usuários</h2>
<table>
<tr><td>Total</td><td>{{.Users.Total}}</td></tr>
<tr><td>Super administradores</td><td>{{.Users.SuperAdmins}}</td></tr>
<tr><td>Usuários de restaurante</td><td>{{.Users.RestaurantUsers}}</td></tr>
</table>
</div>
<p><a href="/swagger/index.html">Documentação da API</a></p>
</body>
</html>`))

var loginErrors = map[string]string{
	"expired":  "Sua sessão expirou. Faça login novamente.",
	"inactive": "Usuário inativo.",
	"invalid":  "Sessão inválida. Faça login novamente.",
}

// AdminHandler serves the HTML admin pages outside /api/v1.
type AdminHandler struct {
	restaurantService service.RestaurantService
	userService       service.UserService
	auth              *middleware.Auth
}

func NewAdminHandler(restaurantService service.RestaurantService, userService service.UserService, auth *middleware.Auth) *AdminHandler {
	return &AdminHandler{restaurantService: restaurantService, userService: userService, auth: auth}
}

func (h *AdminHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/login", h.Login)
	router.GET("/admin", h.auth.ProtectRoute(), middleware.RequireSuperAdminRoute(), h.Dashboard)
}

// Login renders the login page. The redirect target is kept on this host.
func (h *AdminHandler) Login(c *gin.Context) {
	redirect := c.DefaultQuery("redirect", "/admin")
	if len(redirect) == 0 || redirect[0] != '/' || (len(redirect) > 1 && redirect[1] == '/') {
		redirect = "/admin"
	}
	render(c, loginTemplate, gin.H{"Error": loginErrors[c.Query("error")], "Redirect": redirect})
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	actor := actorOf(c)
	restaurants, err := h.restaurantService.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	users, err := h.userService.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	render(c, adminTemplate, gin.H{
		"Name":        actor.Name,
		"Email":       actor.Email,
		"Restaurants": restaurants,
		"Users":       users,
	})
}

func render(c *gin.Context, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		_ = c.Error(err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
