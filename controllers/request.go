package controllers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/mobirepair/mobirepair-api/services"
	"github.com/mobirepair/mobirepair-api/utils"
)

var bindingNamesOnce sync.Once

// useJSONFieldNames makes gin's binding validator report json names instead of Go field names
func useJSONFieldNames() {
	bindingNamesOnce.Do(func() {
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

// bindJSON decodes the request body into dst. On failure it writes a validation error and returns false.
func bindJSON(c *gin.Context, dst interface{}) bool {
	useJSONFieldNames()
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.RespondError(c, bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return utils.NewValidationError("Invalid request data")
	}
	fields := make([]utils.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		message := fmt.Sprintf("%s is invalid", fe.Field())
		if fe.Tag() == "required" {
			message = fmt.Sprintf("%s is required", fe.Field())
		}
		fields = append(fields, utils.FieldError{Field: fe.Field(), Message: message})
	}
	return utils.NewValidationError("Invalid request data", fields...)
}

// uintParam parses a numeric path parameter; malformed ids are reported as notFound
func uintParam(c *gin.Context, name string, notFound error) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, notFound)
		return 0, false
	}
	return uint(id), true
}

// pageQuery reads ?page= and ?limit=. Out of range values are clamped by the services.
func pageQuery(c *gin.Context) services.PageQuery {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return services.PageQuery{Page: page, Limit: limit}
}

func floatQuery(c *gin.Context, name string) *float64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
