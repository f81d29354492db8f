package handler

import (
	"errors"
	"net/http"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/dealerdesk/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// HandleError converts domain errors to HTTP responses. Anything else is a 500
// and gets logged with the request context.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	logger.L(c.Request.Context()).Error("Unhandled request error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// bindJSON binds and validates the body, answering 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds and validates query parameters, answering 400 on failure
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// pathUUID parses a UUID path parameter, answering 400 on failure
func (h *BaseHandler) pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// actor returns the authenticated caller, answering 401 when absent
func (h *BaseHandler) actor(c *gin.Context) (middleware.Actor, bool) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return middleware.Actor{}, false
	}
	return actor, true
}

// parseMoney converts a decimal string. Empty means zero.
func parseMoney(s string) (valueobject.Money, error) {
	if s == "" {
		return valueobject.Zero(), nil
	}
	return valueobject.NewMoneyFromString(s)
}

// parseDate converts a YYYY-MM-DD string. Empty means the zero date.
func parseDate(s string) (valueobject.Date, error) {
	if s == "" {
		return valueobject.Date{}, nil
	}
	return valueobject.ParseDate(s)
}

// fieldParser converts bound string fields into domain values and collects
// one detail per field that fails to convert.
type fieldParser struct {
	details []dto.ValidationDetail
}

func (p *fieldParser) fail(field, message string) {
	p.details = append(p.details, dto.ValidationDetail{Field: field, Message: message})
}

func (p *fieldParser) money(field, s string) valueobject.Money {
	m, err := parseMoney(s)
	if err != nil {
		p.fail(field, "must be a decimal amount")
	}
	return m
}

func (p *fieldParser) date(field, s string) valueobject.Date {
	d, err := parseDate(s)
	if err != nil {
		p.fail(field, "must be a date in YYYY-MM-DD format")
	}
	return d
}

func (p *fieldParser) id(field, s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		p.fail(field, "must be a UUID")
	}
	return id
}

// rejectFields answers 400 with the collected details, if any
func (h *BaseHandler) rejectFields(c *gin.Context, p *fieldParser) bool {
	if len(p.details) == 0 {
		return false
	}
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Invalid field values", middleware.GetRequestID(c), p.details))
	return true
}
