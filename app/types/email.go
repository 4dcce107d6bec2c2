package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/email"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/entity"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var ErrInvalidRequest = errors.New("validation error")

type FieldError struct {
	Field   string
	Code    string
	Message string
}

// ValidationError carries every rejected field of a request.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return ErrInvalidRequest.Error()
	}
	return fmt.Sprintf("%s: %s %s", ErrInvalidRequest, e.Details[0].Field, e.Details[0].Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

type FixEmailRequest struct {
	UserID   uint64 `json:"userId" validate:"required,gt=0"`
	NewEmail string `json:"newEmail" validate:"required,strict_email"`
	Table    string `json:"table" validate:"omitempty,oneof=users staff admin"`

	// decodeIssues holds fields whose JSON value had the wrong shape. They
	// are reported by Validate instead of failing the bind.
	decodeIssues []FieldError
}

// UnmarshalJSON only fails on malformed JSON. userId accepts a JSON number or
// a numeric string; any other shape is kept as a field issue.
func (r *FixEmailRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		UserID   json.RawMessage `json:"userId"`
		NewEmail json.RawMessage `json:"newEmail"`
		Table    json.RawMessage `json:"table"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = FixEmailRequest{}
	var issue *FieldError
	if r.UserID, issue = parseUserID(raw.UserID); issue != nil {
		r.decodeIssues = append(r.decodeIssues, *issue)
	}
	if r.NewEmail, issue = parseString("newEmail", raw.NewEmail); issue != nil {
		r.decodeIssues = append(r.decodeIssues, *issue)
	}
	if r.Table, issue = parseString("table", raw.Table); issue != nil {
		r.decodeIssues = append(r.decodeIssues, *issue)
	}
	return nil
}

func parseUserID(data json.RawMessage) (uint64, *FieldError) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, nil
	}

	var text string
	switch {
	case data[0] == '"':
		if err := json.Unmarshal(data, &text); err != nil {
			return 0, userIDIssue("type", "userId must be a number")
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return 0, nil
		}
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		text = string(data)
	default:
		return 0, userIDIssue("type", "userId must be a number")
	}

	if n, err := strconv.ParseUint(text, 10, 64); err == nil {
		if n == 0 {
			return 0, userIDIssue("gt", "userId must be greater than 0")
		}
		return n, nil
	}

	f, err := strconv.ParseFloat(text, 64)
	switch {
	case err != nil, math.IsNaN(f), math.IsInf(f, 0):
		return 0, userIDIssue("type", "userId must be a number")
	case f != math.Trunc(f):
		return 0, userIDIssue("int", "userId must be an integer")
	case f <= 0:
		return 0, userIDIssue("gt", "userId must be greater than 0")
	case f >= math.MaxUint64:
		return 0, userIDIssue("max", "userId is out of range")
	}
	return uint64(f), nil
}

func userIDIssue(code, message string) *FieldError {
	return &FieldError{Field: "userId", Code: code, Message: message}
}

func parseString(field string, data json.RawMessage) (string, *FieldError) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", &FieldError{Field: field, Code: "type", Message: field + " must be a string"}
	}
	return s, nil
}

func NewFixEmailRequestFromContext(ctx echo.Context) (*FixEmailRequest, error) {
	var body FixEmailRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

// TargetTable resolves the optional table field; an empty value means users.
func (r *FixEmailRequest) TargetTable() entity.Table {
	if t, ok := entity.ParseTable(r.Table); ok {
		return t
	}
	return entity.TableUsers
}

func (r *FixEmailRequest) Validate() error {
	details := append([]FieldError(nil), r.decodeIssues...)
	rejected := make(map[string]bool, len(details))
	for _, d := range details {
		rejected[d.Field] = true
	}

	var verrs validator.ValidationErrors
	if err := validate.Struct(r); err != nil && !errors.As(err, &verrs) {
		return err
	}

	for _, fe := range verrs {
		if rejected[fe.Field()] {
			continue
		}
		if fe.Tag() == "strict_email" {
			for _, issue := range email.Validate(r.NewEmail) {
				details = append(details, FieldError{Field: fe.Field(), Code: issue.Code, Message: issue.Message})
			}
			continue
		}
		details = append(details, FieldError{Field: fe.Field(), Code: fe.Tag(), Message: fieldMessage(fe)})
	}
	if len(details) == 0 {
		return nil
	}
	return &ValidationError{Details: details}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("strict_email", func(fl validator.FieldLevel) bool {
		return email.IsStrictlyValid(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}
