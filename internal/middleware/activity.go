package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strconv"

	"foodway/internal/service"

	"github.com/gin-gonic/gin"
)

// EntityIDKey lets a handler report the id of the row it created.
const EntityIDKey = "entity_id"

var entityParams = []string{"id", "restaurant_id", "category_id", "product_id"}

// LogActivity records action on entityType once the handler answered 2xx for
// an authenticated caller.
func LogActivity(activity service.ActivityService, action, entityType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		keys := bodyKeys(c)

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices || len(c.Errors) > 0 {
			return
		}
		actor, ok := ActorFrom(c)
		if !ok {
			return
		}

		activity.Record(context.WithoutCancel(c.Request.Context()), service.ActivityEntry{
			UserID:       &actor.UserID,
			RestaurantID: actor.RestaurantID,
			Action:       action,
			EntityType:   entityType,
			EntityID:     entityID(c),
			Details: map[string]any{
				"method":    c.Request.Method,
				"path":      c.Request.URL.Path,
				"query":     c.Request.URL.Query(),
				"body_keys": keys,
			},
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
	}
}

func entityID(c *gin.Context) *uint {
	for _, name := range entityParams {
		if raw := c.Param(name); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
				v := uint(id)
				return &v
			}
		}
	}
	if id, ok := c.Get(EntityIDKey); ok {
		if v, ok := id.(uint); ok {
			return &v
		}
	}
	return nil
}

// bodyKeys peeks at a JSON object body and restores it for the handler.
func bodyKeys(c *gin.Context) []string {
	keys := []string{}
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return keys
	}

	raw, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return keys
	}

	var body map[string]json.RawMessage
	if json.Unmarshal(raw, &body) != nil {
		return keys
	}
	for k := range body {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
