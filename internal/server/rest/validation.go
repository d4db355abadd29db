package rest

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validationOnce sync.Once

// registerValidation makes validator report JSON field names.
func registerValidation() {
	validationOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})
		}
	})
}

// fieldErrors turns a binding error into per-field messages.
func fieldErrors(err error) map[string]string {
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				out[fe.Field()] = "is required"
			case "base64":
				out[fe.Field()] = "must be base64"
			default:
				out[fe.Field()] = "is invalid"
			}
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}
