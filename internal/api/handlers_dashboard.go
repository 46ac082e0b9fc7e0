package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/annel0/bookit/internal/catalog"
	"github.com/annel0/bookit/internal/middleware"
	"github.com/annel0/bookit/internal/theme"
	"github.com/gin-gonic/gin"
)

// ThemeRequest — явный выбор темы; пустое значение переключает текущую.
type ThemeRequest struct {
	Theme string `json:"theme" form:"theme"`
}

func (rs *RestServer) handleGetTheme(c *gin.Context) {
	t := rs.themes.Current(c.Request.Context(), c.Request, middleware.GetClientID(c))
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "ok", Data: gin.H{"theme": t}})
}

func (rs *RestServer) handleSetTheme(c *gin.Context) {
	var req ThemeRequest
	_ = c.ShouldBind(&req) // пустое тело — переключение

	ctx := c.Request.Context()
	clientID := middleware.GetClientID(c)

	var (
		t   theme.Theme
		err error
	)
	if req.Theme == "" {
		t, err = rs.themes.Toggle(ctx, c.Writer, c.Request, clientID)
	} else if t, err = theme.Parse(req.Theme); err == nil {
		err = rs.themes.Set(ctx, c.Writer, clientID, t)
	}

	if errors.Is(err, theme.ErrUnknownTheme) {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: err.Error()})
		return
	}
	if err != nil {
		rs.log.Error("тема %s: %v", clientID, err)
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "ok", Data: gin.H{"theme": t}})
}

// handleTickets — поиск по демонстрационным билетам.
func (rs *RestServer) handleTickets(c *gin.Context) {
	var f catalog.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Invalid filter"})
		return
	}
	tickets, err := catalog.Tickets(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: fmt.Sprintf("%d tickets", len(tickets)),
		Data:    tickets,
	})
}

// handleAdminStats возвращает сводку панели и метрики процесса.
func (rs *RestServer) handleAdminStats(c *gin.Context) {
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, _ := rs.metrics.GetCPUUsage()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data: gin.H{
			"overview": catalog.AdminStats(),
			"server": gin.H{
				"uptime":      rs.metrics.GetUptime(),
				"memory_mb":   fmt.Sprintf("%.2f", memoryMB),
				"cpu_percent": fmt.Sprintf("%.2f", cpuPercent),
				"server_time": time.Now().Unix(),
				"degraded":    rs.metrics.Degraded(),
			},
			"memory_details": rs.metrics.GetDetailedMemoryStats(),
		},
	})
}
