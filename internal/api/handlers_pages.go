package api

import (
	"net/http"

	"github.com/annel0/bookit/internal/auth"
	"github.com/annel0/bookit/internal/catalog"
	"github.com/annel0/bookit/internal/middleware"
	"github.com/annel0/bookit/internal/routing"
	"github.com/annel0/bookit/internal/theme"
	"github.com/gin-gonic/gin"
)

// PageView описывает страницу, которую клиент должен отрисовать.
// Тема передаётся явно в каждое представление.
type PageView struct {
	Page  string         `json:"page"`
	Title string         `json:"title"`
	Class string         `json:"class"`
	Theme theme.Theme    `json:"theme"`
	User  *auth.Identity `json:"user,omitempty"`
	Data  interface{}    `json:"data,omitempty"`
}

var pageTitles = map[string]string{
	routing.RootPath:           "BookItNow",
	routing.OnboardingPath:     "Discover BookItNow",
	routing.LoginPath:          "Welcome Back",
	routing.SignupPath:         "Create Account",
	routing.ForgotPasswordPath: "Reset Password",
	routing.UserOnboardingPath: "Welcome to BookItNow",
	routing.DashboardPath:      "Dashboard",
	routing.AdminDashboardPath: "Admin Dashboard",
}

// handlePage отдаёт описание страницы, уже пропущенной политикой доступа.
func (rs *RestServer) handlePage(c *gin.Context) {
	ctx := c.Request.Context()
	clientID := middleware.GetClientID(c)
	page := routing.Normalize(c.Request.URL.Path)

	view := PageView{
		Page:  page,
		Title: pageTitles[page],
		Class: routing.Classify(page).String(),
		Theme: rs.themes.Current(ctx, c.Request, clientID),
		User:  currentIdentity(c),
	}

	switch page {
	case routing.UserOnboardingPath:
		w, err := rs.onboarding.Load(ctx, clientID)
		if err != nil {
			rs.log.Error("онбординг %s: %v", clientID, err)
			c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: "Internal server error"})
			return
		}
		view.Data = wizardView(w)
	case routing.DashboardPath:
		tickets, _ := catalog.Tickets(catalog.Filter{})
		view.Data = gin.H{"tickets": tickets}
	case routing.AdminDashboardPath:
		view.Data = gin.H{"stats": catalog.AdminStats()}
	}

	c.JSON(http.StatusOK, view)
}
