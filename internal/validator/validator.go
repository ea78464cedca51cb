// Package validator binds request payloads and turns validation failures into
// field errors with Portuguese messages.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"foodway/internal/apperror"
	"foodway/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	msgValidation  = "Erro de validação"
	msgInvalidJSON = "JSON inválido na requisição"
)

var (
	registerOnce sync.Once
	phonePattern = regexp.MustCompile(`^[0-9+\-\s()]+$`)

	// messages reported by struct-level rules, keyed by tag
	customMessages sync.Map
)

// Register installs the custom rules on gin's validator engine. Safe to call repeatedly.
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})

		v.RegisterStructValidation(func(sl validator.StructLevel) {
			req := sl.Current().Interface().(service.CreateProductRequest)
			regular := decimal.NewFromFloat(req.RegularPrice)
			current := regular
			if req.CurrentPrice != nil {
				current = decimal.NewFromFloat(*req.CurrentPrice)
			}
			report(sl, req.CurrentPrice, service.PromotionError(req.IsOnPromotion, regular, current))
		}, service.CreateProductRequest{})

		v.RegisterStructValidation(func(sl validator.StructLevel) {
			req := sl.Current().Interface().(service.CreateUserRequest)
			report(sl, req.RestaurantID, service.RoleRestaurantError(req.Role, req.RestaurantID))
		}, service.CreateUserRequest{})

		v.RegisterStructValidation(func(sl validator.StructLevel) {
			req := sl.Current().Interface().(service.GenerateTablesRequest)
			report(sl, req.EndNumber, service.RangeError(req.StartNumber, req.EndNumber))
		}, service.GenerateTablesRequest{})
	})
}

func report(sl validator.StructLevel, value any, fe *apperror.FieldError) {
	if fe == nil {
		return
	}
	customMessages.Store(fe.Type, fe.Message)
	sl.ReportError(value, fe.Field, fe.Field, fe.Type, "")
}

// fieldName prefers the json name, then the form name, then the Go name.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// BindJSON decodes and validates the request body into obj.
func BindJSON(c *gin.Context, obj any) error {
	Register()
	return Translate(c.ShouldBindJSON(obj))
}

// BindJSONWith decodes the body into obj, lets fill set fields taken from the
// route, then validates. Nested routes use it so the path wins over the body.
func BindJSONWith(c *gin.Context, obj any, fill func()) error {
	Register()
	if c.Request.Body == nil {
		return Translate(io.EOF)
	}
	if err := json.NewDecoder(c.Request.Body).Decode(obj); err != nil {
		return Translate(err)
	}
	if fill != nil {
		fill()
	}
	return Translate(binding.Validator.ValidateStruct(obj))
}

// BindQuery decodes and validates the query string into obj.
func BindQuery(c *gin.Context, obj any) error {
	Register()
	return Translate(c.ShouldBindQuery(obj))
}

// Translate converts binding errors into an *apperror.AppError; nil stays nil.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apperror.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, toFieldError(fe))
		}
		return apperror.Validation(msgValidation, fields...)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return apperror.BadRequest(msgInvalidJSON)
	}
	if errors.Is(err, io.EOF) {
		return apperror.BadRequest("Corpo da requisição é obrigatório")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperror.Validation(msgValidation, apperror.FieldError{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("%s deve ser do tipo %s", typeErr.Field, typeName(typeErr.Type.Kind())),
			Type:    typeName(typeErr.Type.Kind()) + ".base",
		})
	}

	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return apperror.Validation(msgValidation, apperror.FieldError{
			Field:   "query",
			Message: fmt.Sprintf("Valor inválido: %s", numErr.Num),
			Type:    "any.invalid",
		})
	}

	return apperror.BadRequest(err.Error())
}

// fieldPath drops the root struct and embedded struct names from the
// namespace: items[0].product_id.
func fieldPath(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts[1:] {
		if p != "" && unicode.IsUpper(rune(p[0])) {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return fe.Field()
	}
	return strings.Join(out, ".")
}

func toFieldError(fe validator.FieldError) apperror.FieldError {
	field := fieldPath(fe)
	if strings.HasPrefix(fe.Tag(), "custom.") {
		msg, _ := customMessages.Load(fe.Tag())
		text, _ := msg.(string)
		return apperror.FieldError{Field: field, Message: text, Type: fe.Tag()}
	}
	return apperror.FieldError{Field: field, Message: message(fe), Type: errorType(fe)}
}

func typeName(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Bool:
		return "boolean"
	case reflect.Struct, reflect.Map:
		return "object"
	}
	return "any"
}

func errorType(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "any.required"
	case "oneof":
		return "any.only"
	case "email":
		return "string.email"
	case "url":
		return "string.uri"
	case "phone":
		return "string.pattern.base"
	case "uuid4", "uuid":
		return "string.guid"
	}
	return typeName(fe.Kind()) + "." + fe.Tag()
}

func message(fe validator.FieldError) string {
	name := fe.Field()
	kind := typeName(fe.Kind())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s é obrigatório", name)
	case "email":
		return fmt.Sprintf("%s deve ter um formato de email válido", name)
	case "url":
		return fmt.Sprintf("%s deve ser uma URL válida", name)
	case "phone":
		return "Telefone deve conter apenas números e caracteres válidos"
	case "uuid4", "uuid":
		return fmt.Sprintf("%s deve ser um UUID válido", name)
	case "oneof":
		return fmt.Sprintf("%s deve ser um dos valores: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "unique":
		return fmt.Sprintf("%s não pode conter valores duplicados", name)
	case "datetime":
		return fmt.Sprintf("%s deve estar no formato AAAA-MM-DD", name)
	case "gt":
		return fmt.Sprintf("%s deve ser maior que %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s deve ser maior ou igual a %s", name, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s deve ser maior ou igual a %s", name, fe.Param())
	case "min":
		switch kind {
		case "string":
			return fmt.Sprintf("%s deve ter pelo menos %s caracteres", name, fe.Param())
		case "array":
			return fmt.Sprintf("%s deve ter pelo menos %s item(s)", name, fe.Param())
		}
		return fmt.Sprintf("%s deve ser no mínimo %s", name, fe.Param())
	case "max":
		switch kind {
		case "string":
			return fmt.Sprintf("%s deve ter no máximo %s caracteres", name, fe.Param())
		case "array":
			return fmt.Sprintf("%s deve ter no máximo %s itens", name, fe.Param())
		}
		return fmt.Sprintf("%s deve ser no máximo %s", name, fe.Param())
	}
	return fmt.Sprintf("%s é inválido", name)
}
