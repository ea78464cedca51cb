package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Kind string

const (
	KindValidation      Kind = "ValidationError"
	KindNotFound        Kind = "NotFoundError"
	KindConflict        Kind = "ConflictError"
	KindUnauthorized    Kind = "UnauthorizedError"
	KindBadRequest      Kind = "BadRequestError"
	KindTooManyRequests Kind = "TooManyRequestsError"
	KindDatabase        Kind = "DatabaseError"
	KindInternal        Kind = "InternalError"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// AppError is the only error type rendered to clients with its own message.
type AppError struct {
	Kind    Kind
	Message string
	Errors  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// StatusCode maps the kind to its HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindBadRequest:
		return http.StatusBadRequest
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func Validation(message string, errs ...FieldError) *AppError {
	if message == "" {
		message = "Erro de validação"
	}
	return &AppError{Kind: KindValidation, Message: message, Errors: errs}
}

func NotFound(message string) *AppError {
	if message == "" {
		message = "Recurso não encontrado"
	}
	return &AppError{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *AppError {
	if message == "" {
		message = "Conflito de dados"
	}
	return &AppError{Kind: KindConflict, Message: message}
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "Não autorizado"
	}
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func BadRequest(message string) *AppError {
	return &AppError{Kind: KindBadRequest, Message: message}
}

func TooManyRequests(message string) *AppError {
	return &AppError{Kind: KindTooManyRequests, Message: message}
}

func Database(message string, err error) *AppError {
	if message == "" {
		message = "Erro no banco de dados"
	}
	return &AppError{Kind: KindDatabase, Message: message, Err: err}
}

// As extracts an *AppError from the chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an *AppError of the given kind.
func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// StatusCode returns the HTTP status for any error; non-AppErrors are 500.
func StatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.StatusCode()
	}
	return http.StatusInternalServerError
}

// Postgres SQLSTATE codes handled by FromDB.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgInsufficientPriv    = "42501"
	pgSyntaxError         = "42601"
)

// FromDB translates a persistence error into the taxonomy. notFound is the
// message used when the record does not exist; AppErrors pass through untouched.
func FromDB(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound(notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &AppError{Kind: KindConflict, Message: "Registro duplicado", Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &AppError{Kind: KindValidation, Message: "Referência inválida", Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &AppError{Kind: KindConflict, Message: "Registro duplicado", Err: err}
		case pgForeignKeyViolation:
			return &AppError{Kind: KindValidation, Message: "Referência inválida", Err: err}
		case pgNotNullViolation:
			return &AppError{Kind: KindValidation, Message: "Campo obrigatório não informado", Err: err}
		case pgInsufficientPriv:
			return &AppError{Kind: KindUnauthorized, Message: "Permissão negada", Err: err}
		case pgSyntaxError:
			return Database("Erro de sintaxe na consulta", err)
		}
	}

	return Database("", err)
}

// IsDuplicate reports whether err is a unique-constraint violation.
func IsDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
