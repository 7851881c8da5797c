package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/backend"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/console"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/listing"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/metrics"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/validation"
)

// PaginationParams holds pagination-related query parameters
type PaginationParams struct {
	Page     int
	PageSize int
}

// ParsePaginationParams parses page and pageSize (or limit) with a default and maximum size
func ParsePaginationParams(c *gin.Context, defaultSize, maxSize int) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	sizeParam := c.Query("pageSize")
	if sizeParam == "" {
		sizeParam = c.DefaultQuery("limit", strconv.Itoa(defaultSize))
	}
	size, _ := strconv.Atoi(sizeParam)

	if page < 1 {
		page = 1
	}

	if size < 1 {
		size = defaultSize
	} else if size > maxSize {
		size = maxSize
	}

	return PaginationParams{Page: page, PageSize: size}
}

// SendErrorResponse sends a standardized error response
func SendErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}

// sendValidationErrors answers 422 with the message of every invalid field
func sendValidationErrors(c *gin.Context, m *metrics.Metrics, form string, errs validation.Errors) {
	m.ValidationFailures.WithLabelValues(form).Inc()
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":  "Please correct the highlighted fields.",
		"fields": errs,
	})
}

// statusFor maps an error to the status the gateway answers with
func statusFor(err error) int {
	if errors.Is(err, backend.ErrTicketNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, console.ErrAlreadyDeparted) {
		return http.StatusConflict
	}
	if _, ok := validation.AsErrors(err); ok {
		return http.StatusUnprocessableEntity
	}

	var be *backend.Error
	if !errors.As(err, &be) {
		return http.StatusInternalServerError
	}
	switch be.Kind {
	case backend.KindNoSession, backend.KindUnauthorized:
		return http.StatusUnauthorized
	case backend.KindForbidden:
		return http.StatusForbidden
	case backend.KindNotFound:
		return http.StatusNotFound
	case backend.KindRejected:
		if be.Status >= 400 && be.Status < 500 {
			return be.Status
		}
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// sendError logs err and answers with its user facing message
func sendError(c *gin.Context, logger *zap.Logger, err error, resource, message string) {
	status := statusFor(err)
	if errs, ok := validation.AsErrors(err); ok {
		c.JSON(status, gin.H{"error": "Please correct the highlighted fields.", "fields": errs})
		return
	}

	if status >= 500 {
		logger.Error(message, zap.Error(err), zap.String("path", c.Request.URL.Path))
	} else {
		logger.Debug(message, zap.Error(err), zap.String("path", c.Request.URL.Path))
	}
	SendErrorResponse(c, status, backend.UserMessage(err, resource))
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		SendErrorResponse(c, http.StatusBadRequest, "Invalid "+name+" ID")
		return 0, false
	}
	return id, true
}

var reservedParams = map[string]bool{"page": true, "pageSize": true, "limit": true, "sort": true}

// listQuery reads the listing query parameters of c
func listQuery[T any](c *gin.Context, filters console.Filters[T], sorters listing.Sorters[T], defaultSort string) (listing.Predicate[T], listing.SortSpec, error) {
	values := map[string]string{}
	for key := range c.Request.URL.Query() {
		if reservedParams[key] {
			continue
		}
		if _, ok := filters[key]; ok {
			values[key] = c.Query(key)
		}
	}

	keep, err := filters.Build(values)
	if err != nil {
		return nil, listing.SortSpec{}, err
	}

	spec := listing.ParseSort(c.DefaultQuery("sort", defaultSort))
	if spec.Key != "" && !sorters.Has(spec.Key) {
		return nil, listing.SortSpec{}, console.ErrUnknownSort
	}
	return keep, spec, nil
}

// sendList filters, sorts and paginates items according to the query of c
func sendList[T any](c *gin.Context, items []T, filters console.Filters[T], sorters listing.Sorters[T], defaultSort string, p PaginationParams) {
	keep, spec, err := listQuery(c, filters, sorters, defaultSort)
	if err != nil {
		SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	rows := listing.Apply(items, keep, spec, sorters)
	c.JSON(http.StatusOK, listing.Paginate(rows, p.Page, p.PageSize))
}
