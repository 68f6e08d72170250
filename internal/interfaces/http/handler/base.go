package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/interfaces/http/dto"
	"github.com/stockpilot/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common response helpers
type BaseHandler struct{}

// Success sends a 200 response with the standard envelope
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.respondError(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.respondError(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// DomainError maps a domain error to an HTTP response. Unknown errors become
// opaque 500s so internal details never leak to callers.
func (h *BaseHandler) DomainError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.respondError(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Code, domainErr.Message)
		return
	}
	h.respondError(c, http.StatusInternalServerError, dto.ErrCodeInternal, "Internal server error")
}

func (h *BaseHandler) respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}
