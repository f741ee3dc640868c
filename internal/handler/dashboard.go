package handler

import (
	"net/http"

	"atlascrm/internal/apierror"
	"atlascrm/internal/middleware"
	"atlascrm/internal/service"

	"github.com/gin-gonic/gin"
)

// Dashboard godoc
// @Summary Chiffres clés de la société
// @Description Servis depuis Redis pendant 5 minutes.
// @Tags dashboard
// @Security BearerAuth
// @Success 200 {object} apierror.Envelope{data=dto.DashboardResponse}
// @Router /v1/dashboard [get]
func Dashboard(svc service.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := svc.Get(c.Request.Context(), middleware.CompanyID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, apierror.OK(resp))
	}
}
