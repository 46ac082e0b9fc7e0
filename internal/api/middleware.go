package api

import (
	"net/http"

	"github.com/annel0/bookit/internal/auth"
	"github.com/annel0/bookit/internal/middleware"
	"github.com/annel0/bookit/internal/routing"
	"github.com/annel0/bookit/internal/session"
	"github.com/gin-gonic/gin"
)

// identityKey — ключ gin.Context с *auth.Identity текущего запроса.
const identityKey = "identity"

// guardMiddleware применяет политику доступа к странице. Любой исход —
// либо пропуск, либо 307 на страницу, которую выбрала политика.
func (rs *RestServer) guardMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := routing.Normalize(c.Request.URL.Path)
		if !rs.matcher.Matches(path) {
			c.Next()
			return
		}

		id := rs.sessions.Identity(c.Request)
		decision := routing.Evaluate(routing.Request{
			Path:                path,
			Identity:            id,
			OnboardingCompleted: session.OnboardingCompleted(c.Request),
		})
		rs.decisions.WithLabelValues(routing.Classify(path).String(), decision.Action.String()).Inc()

		if decision.IsRedirect() {
			rs.log.Debug("guard %s → %s trace=%s", path, decision.Location, middleware.TraceID(c))
			c.Redirect(http.StatusTemporaryRedirect, decision.Location)
			c.Abort()
			return
		}

		if id != nil {
			c.Set(identityKey, id)
		}
		c.Next()
	}
}

// requireIdentity пропускает только запросы с действующей сессией.
// API отвечает 401, а не редиректом.
func (rs *RestServer) requireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := rs.sessions.Identity(c.Request)
		if id == nil {
			c.JSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Not authenticated",
			})
			c.Abort()
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// adminMiddleware проверяет, что пользователь является администратором
func (rs *RestServer) adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := currentIdentity(c)
		if id == nil {
			c.JSON(http.StatusInternalServerError, GenericResponse{
				Success: false,
				Message: "Missing identity",
			})
			c.Abort()
			return
		}

		if !id.IsAdmin() {
			c.JSON(http.StatusForbidden, GenericResponse{
				Success: false,
				Message: "Admin access required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// wizardOpen закрывает API мастера после завершения онбординга.
func (rs *RestServer) wizardOpen() gin.HandlerFunc {
	return func(c *gin.Context) {
		if session.OnboardingCompleted(c.Request) {
			c.JSON(http.StatusConflict, GenericResponse{
				Success: false,
				Message: "Onboarding already completed",
				Data:    gin.H{"redirect": routing.DashboardPath},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentIdentity возвращает личность, положенную guard или requireIdentity.
func currentIdentity(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}
