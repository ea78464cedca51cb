package middleware

import (
	"fmt"
	"net/http"

	"foodway/internal/apperror"
	"foodway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const msgInternal = "Erro interno do servidor"

// ErrorHandler renders the last error pushed with c.Error. Handlers and
// middleware never write error responses themselves.
func ErrorHandler(log logrus.FieldLogger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status := apperror.StatusCode(err)

		entry := log.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
		}).WithError(err)
		if status >= http.StatusInternalServerError {
			entry.Error("Request failed")
		} else {
			entry.Debug("Request rejected")
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(status, render(err, production))
	}
}

func render(err error, production bool) response.Envelope {
	appErr, ok := apperror.As(err)
	if !ok {
		env := response.Error(msgInternal, nil)
		if !production {
			env.Message = err.Error()
			env.Type = string(apperror.KindInternal)
			env.Stack = fmt.Sprintf("%+v", err)
		}
		return env
	}

	var errs any
	if len(appErr.Errors) > 0 {
		errs = appErr.Errors
	}
	env := response.Error(appErr.Message, errs)
	if !production {
		env.Type = string(appErr.Kind)
		if appErr.Err != nil {
			env.Stack = appErr.Err.Error()
		}
	}
	return env
}

// Recovery turns panics into 500 errors rendered by ErrorHandler.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		abort(c, fmt.Errorf("panic: %v", recovered))
	})
}

// NotFound answers routes that match nothing.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		abort(c, apperror.NotFound("Rota não encontrada"))
	}
}
