package readings

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	httperr "github.com/wattbill-lab/wattbill/internal/core/errors"
	"github.com/wattbill-lab/wattbill/internal/core/timeseries"
	"github.com/wattbill-lab/wattbill/internal/storage"
)

// RegisterRoutes registers the live readings API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/power/net/current", s.handleSample(s.CurrentNetPower))
	r.GET("/v1/power/fromgrid/current", s.handleSample(s.CurrentFromGridPower))
	r.GET("/v1/production/current", s.handleSample(s.CurrentProduction))
	r.GET("/v1/consumption/current", s.handleSample(s.CurrentConsumption))
	r.GET("/v1/consumption/baseline", s.HandleBaselineConsumption)
}

func (s *Service) handleSample(fetch func(context.Context) (timeseries.Sample, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		sample, err := fetch(c.Request.Context())
		if err != nil {
			writeReadingError(c, err)
			return
		}
		c.JSON(http.StatusOK, sample)
	}
}

// HandleBaselineConsumption handles GET /v1/consumption/baseline
func (s *Service) HandleBaselineConsumption(c *gin.Context) {
	stats, err := s.BaselineConsumption(c.Request.Context())
	if err != nil {
		writeReadingError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func writeReadingError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNoData) {
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNoDataError,
			Message:   "No readings recorded yet",
			Details:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   "Failed to read meter data",
		Details:   err.Error(),
	})
}
