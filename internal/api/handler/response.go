package handler

import (
	"chatcore/backend/internal/chat"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Response is the envelope of every JSON answer.
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Code    string            `json:"code,omitempty"`
	ChatID  uint              `json:"chatId,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// fail maps a service error onto a status code. Infrastructure errors are
// logged and hidden behind a generic message.
func (h *Handler) fail(c *gin.Context, err error) {
	var ce *chat.Error
	if !errors.As(err, &ce) {
		h.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Message: "Internal server error", Code: "internal_error"})
		return
	}

	status := http.StatusInternalServerError
	switch ce.Kind {
	case chat.KindValidation, chat.KindConflict:
		status = http.StatusBadRequest
	case chat.KindAuthorization:
		status = http.StatusForbidden
	case chat.KindNotFound:
		status = http.StatusNotFound
	}
	c.JSON(status, Response{
		Success: false,
		Message: ce.Message,
		Errors:  ce.Fields,
		Code:    ce.Code,
		ChatID:  ce.ChatID,
	})
}

// badRequest reports a binding failure with per-field detail when available.
func badRequest(c *gin.Context, err error) {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = reason(fe)
		}
	} else {
		fields["body"] = "malformed request"
	}
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Message: "Validation failed",
		Errors:  fields,
		Code:    chat.ErrValidation.Code,
	})
}

func invalidParam(c *gin.Context, name string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Message: "Validation failed",
		Errors:  map[string]string{name: "must be a positive integer"},
		Code:    chat.ErrValidation.Code,
	})
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

var fieldNamesOnce sync.Once

// registerJSONFieldNames makes validation errors name fields as clients send them.
func registerJSONFieldNames() {
	fieldNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}
