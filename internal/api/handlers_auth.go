package api

import (
	"errors"
	"net/http"

	"github.com/annel0/bookit/internal/auth"
	"github.com/annel0/bookit/internal/middleware"
	"github.com/annel0/bookit/internal/routing"
	"github.com/annel0/bookit/internal/session"
	"github.com/gin-gonic/gin"
)

// LoginRequest представляет запрос на вход (JSON или форма)
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// LoginResponse — данные успешного входа.
type LoginResponse struct {
	User     auth.Identity `json:"user"`
	Redirect string        `json:"redirect"`
}

// handleLogin обрабатывает запрос на вход
func (rs *RestServer) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Email and password are required",
		})
		return
	}

	id, err := rs.sessions.Login(c.Request.Context(), c.Writer, middleware.GetClientID(c), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, GenericResponse{
			Success: false,
			Message: "Invalid email or password",
		})
		return
	}
	if err != nil {
		rs.log.Error("вход %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Signed in",
		Data: LoginResponse{
			User:     id,
			Redirect: landingFor(id, session.OnboardingCompleted(c.Request)),
		},
	})
}

// landingFor — куда отправить клиента сразу после входа: домашняя страница
// роли, если политика её пропускает, иначе её перенаправление.
func landingFor(id auth.Identity, onboarded bool) string {
	home := routing.Home(id)
	d := routing.Evaluate(routing.Request{Path: home, Identity: &id, OnboardingCompleted: onboarded})
	if d.IsRedirect() {
		return d.Location
	}
	return home
}

// handleLogout удаляет сессию и всегда отправляет на /login.
func (rs *RestServer) handleLogout(c *gin.Context) {
	if err := rs.sessions.Logout(c.Request.Context(), c.Writer, middleware.GetClientID(c)); err != nil {
		// cookie уже снята; ошибка кеша не мешает выходу
		rs.log.Warn("выход: %v", err)
	}
	c.Redirect(http.StatusSeeOther, routing.LoginPath)
}

// handleMe возвращает личность текущей сессии.
func (rs *RestServer) handleMe(c *gin.Context) {
	id := rs.sessions.Restore(c.Request.Context(), c.Request, middleware.GetClientID(c))
	if id == nil {
		id = currentIdentity(c)
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Current user",
		Data:    id,
	})
}
