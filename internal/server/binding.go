package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// bindMessages maps a struct field and validation tag to the message a
// client sees. The "*" tag matches any failed rule on that field.
type bindMessages map[string]map[string]string

func (m bindMessages) lookup(fe validator.FieldError) (string, bool) {
	rules, ok := m[fe.Field()]
	if !ok {
		return "", false
	}
	if msg, ok := rules[fe.Tag()]; ok {
		return msg, true
	}
	msg, ok := rules["*"]
	return msg, ok
}

func bindJSON(c *gin.Context, req any, messages bindMessages, fallback string) bool {
	return bindWith(c, binding.JSON, req, messages, fallback)
}

func bindQuery(c *gin.Context, req any, messages bindMessages, fallback string) bool {
	return bindWith(c, binding.Query, req, messages, fallback)
}

func bindWith(c *gin.Context, b binding.Binding, req any, messages bindMessages, fallback string) bool {
	err := c.ShouldBindWith(req, b)
	if err == nil {
		return true
	}
	writeError(c, http.StatusBadRequest, resolveBindError(err, messages, fallback))
	return false
}

// resolveBindError picks the first configured message among the failed
// fields, then the fallback.
func resolveBindError(err error, messages bindMessages, fallback string) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if msg, ok := messages.lookup(fe); ok {
				return msg
			}
		}
	}
	if fallback == "" {
		return "invalid request"
	}
	return fallback
}
