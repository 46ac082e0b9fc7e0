package api

import (
	"errors"
	"net/http"

	"github.com/annel0/bookit/internal/middleware"
	"github.com/annel0/bookit/internal/onboarding"
	"github.com/annel0/bookit/internal/routing"
	"github.com/gin-gonic/gin"
)

// WizardView — состояние мастера для клиента.
type WizardView struct {
	Step       int                    `json:"step"`
	TotalSteps int                    `json:"total_steps"`
	Progress   int                    `json:"progress"`
	Current    onboarding.Step        `json:"current"`
	Selections onboarding.Preferences `json:"selections"`
	Last       bool                   `json:"last"`
}

func wizardView(w *onboarding.Wizard) WizardView {
	return WizardView{
		Step:       w.Step,
		TotalSteps: len(onboarding.Steps),
		Progress:   w.Progress(),
		Current:    w.Current(),
		Selections: w.Selections,
		Last:       w.Step == len(onboarding.Steps),
	}
}

// ToggleRequest — выбор варианта на текущем шаге.
type ToggleRequest struct {
	Option string `json:"option" form:"option" binding:"required"`
}

func (rs *RestServer) handleWizardState(c *gin.Context) {
	w, err := rs.onboarding.Load(c.Request.Context(), middleware.GetClientID(c))
	rs.respondWizard(c, w, err)
}

func (rs *RestServer) handleWizardToggle(c *gin.Context) {
	var req ToggleRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Option is required"})
		return
	}
	w, err := rs.onboarding.Toggle(c.Request.Context(), middleware.GetClientID(c), req.Option)
	rs.respondWizard(c, w, err)
}

func (rs *RestServer) handleWizardNext(c *gin.Context) {
	w, err := rs.onboarding.Next(c.Request.Context(), middleware.GetClientID(c))
	rs.respondWizard(c, w, err)
}

func (rs *RestServer) handleWizardBack(c *gin.Context) {
	w, err := rs.onboarding.Back(c.Request.Context(), middleware.GetClientID(c))
	rs.respondWizard(c, w, err)
}

// handleWizardComplete сохраняет выбор и заменяет страницу мастера панелью (303).
func (rs *RestServer) handleWizardComplete(c *gin.Context) {
	_, err := rs.onboarding.Complete(c.Request.Context(), c.Writer, middleware.GetClientID(c))
	if err != nil {
		rs.respondWizard(c, nil, err)
		return
	}
	c.Redirect(http.StatusSeeOther, routing.DashboardPath)
}

func (rs *RestServer) respondWizard(c *gin.Context, w *onboarding.Wizard, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "ok", Data: wizardView(w)})
	case errors.Is(err, onboarding.ErrUnknownOption):
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: err.Error()})
	case errors.Is(err, onboarding.ErrFirstStep),
		errors.Is(err, onboarding.ErrLastStep),
		errors.Is(err, onboarding.ErrNotLastStep),
		errors.Is(err, onboarding.ErrCompleted):
		resp := GenericResponse{Success: false, Message: err.Error()}
		if w != nil {
			resp.Data = wizardView(w)
		}
		c.JSON(http.StatusConflict, resp)
	default:
		rs.log.Error("онбординг: %v", err)
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: "Internal server error"})
	}
}
