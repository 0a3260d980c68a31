package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docembed/internal/embedding"
	"docembed/internal/service"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type handler struct {
	service EmbedPort
}

func newHandler(svc EmbedPort) *handler {
	return &handler{service: svc}
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "docembed",
		"timestamp": time.Now().UTC(),
	})
}

func (h *handler) providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"modules": h.service.Providers()})
}

func (h *handler) embed(c *gin.Context) {
	var req service.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if req.Documents == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "documents is required"})
		return
	}

	resp, err := h.service.Embed(c.Request.Context(), req)
	if err != nil {
		status, code := statusFor(err)
		c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// statusFor maps an embedding error kind to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch kind := embedding.Kind(err); {
	case errors.Is(kind, embedding.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(kind, embedding.ErrModuleNotFound):
		return http.StatusNotFound, "module_not_found"
	case errors.Is(kind, embedding.ErrTypeNotFound):
		return http.StatusNotFound, "type_not_found"
	case errors.Is(kind, embedding.ErrNotConstructible):
		return http.StatusUnprocessableEntity, "not_constructible"
	case errors.Is(kind, embedding.ErrConstructionFailed):
		return http.StatusUnprocessableEntity, "construction_failed"
	case errors.Is(kind, embedding.ErrCapabilityMissing):
		return http.StatusUnprocessableEntity, "capability_missing"
	case errors.Is(kind, embedding.ErrInvocationFailed):
		return http.StatusBadGateway, "invocation_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
