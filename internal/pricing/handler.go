package pricing

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	v1 "github.com/wattbill-lab/wattbill/internal/api/v1"
	httperr "github.com/wattbill-lab/wattbill/internal/core/errors"
	"github.com/wattbill-lab/wattbill/internal/core/tariff"
	"github.com/wattbill-lab/wattbill/internal/storage"
)

// RegisterRoutes registers the price API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/prices/:profile", s.HandleAggregatedPrice)
	r.POST("/v1/prices/:profile/simulate", s.HandleSimulatePrice)
}

// HandleAggregatedPrice handles GET /v1/prices/:profile
// Query parameters: start, end, granularity
func (s *Service) HandleAggregatedPrice(c *gin.Context) {
	var uri struct {
		Profile string `uri:"profile" binding:"required"`
	}
	var query struct {
		Start       time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
		End         time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
		Granularity string    `form:"granularity"`
	}

	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   "Invalid path parameters",
			Details:   err.Error(),
		})
		return
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	granularity, err := ParseGranularity(query.Granularity)
	if err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   "Invalid granularity",
			Details:   err.Error(),
		})
		return
	}

	resp, err := s.AggregatedPrice(c.Request.Context(), uri.Profile, query.Start, query.End, granularity)
	if errors.Is(err, storage.ErrNoData) {
		// No metered data is an empty report, not a failure.
		resp = v1.PriceResponse{
			Profile:     uri.Profile,
			Granularity: string(granularity),
			Start:       query.Start,
			End:         query.End,
			Points:      []v1.PricePoint{},
		}
	} else if err != nil {
		s.writePriceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleSimulatePrice handles POST /v1/prices/:profile/simulate
func (s *Service) HandleSimulatePrice(c *gin.Context) {
	var uri struct {
		Profile string `uri:"profile" binding:"required"`
	}
	var query struct {
		Granularity string `form:"granularity"`
	}
	var body v1.SimulateRequest

	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   "Invalid path parameters",
			Details:   err.Error(),
		})
		return
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   "Invalid request body",
			Details:   err.Error(),
		})
		return
	}

	granularity, err := ParseGranularity(query.Granularity)
	if err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   "Invalid granularity",
			Details:   err.Error(),
		})
		return
	}

	resp, err := s.SimulatePrice(c.Request.Context(), uri.Profile, body, granularity)
	if err != nil {
		s.writePriceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// writePriceError maps service errors onto the HTTP envelope.
func (s *Service) writePriceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tariff.ErrNoTariff):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpNoTariffError,
			Message:   "No tariff defined for the requested range",
			Details:   err.Error(),
		})
	case errors.Is(err, ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   "Invalid price query",
			Details:   err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to compute prices",
			Details:   err.Error(),
		})
	}
}
