package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"foodway/internal/apperror"
	"foodway/internal/middleware"
	"foodway/internal/service"
	"foodway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("Erro de validação", apperror.FieldError{
			Field:   name,
			Message: fmt.Sprintf("%s deve ser um número inteiro positivo", name),
			Type:    "number.base",
		})
	}
	return uint(id), nil
}

// paramInt parses a positive integer path parameter that is not an id.
func paramInt(c *gin.Context, name string) (int, error) {
	id, err := paramID(c, name)
	return int(id), err
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil || id.Version() != 4 {
		return uuid.Nil, apperror.Validation("Erro de validação", apperror.FieldError{
			Field:   name,
			Message: fmt.Sprintf("%s deve ser um UUID válido", name),
			Type:    "string.guid",
		})
	}
	return id, nil
}

// intList parses a comma separated list of positive integers, e.g. "1,2,3".
func intList(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 1 {
			return nil, apperror.Validation("Erro de validação", apperror.FieldError{
				Field:   "table_numbers",
				Message: "table_numbers deve conter apenas números positivos",
				Type:    "array.base",
			})
		}
		out = append(out, n)
	}
	return out, nil
}

// actorOf returns the authenticated caller; routes without auth get the zero actor.
func actorOf(c *gin.Context) service.Actor {
	actor, _ := middleware.ActorFrom(c)
	return actor
}

func clientOf(c *gin.Context) service.ClientInfo {
	return service.ClientInfo{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func ok(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, response.Success(message, data))
}

func created(c *gin.Context, message string, id uint, data any) {
	c.Set(middleware.EntityIDKey, id)
	c.JSON(http.StatusCreated, response.Success(message, data))
}

// page renders a list result under key with its pagination block.
func page[T any](c *gin.Context, message, key string, result *service.ListResult[T]) {
	ok(c, message, gin.H{key: result.Items, "pagination": result.Pagination})
}

// scopeQuery narrows stats endpoints to a restaurant or category.
type scopeQuery struct {
	RestaurantID *uint `form:"restaurant_id" binding:"omitempty,min=1"`
	CategoryID   *uint `form:"category_id" binding:"omitempty,min=1"`
}
