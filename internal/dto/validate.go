package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	apierrors "github.com/yukikurage/taskmanager/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so messages match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("deadline", func(fl validator.FieldLevel) bool {
		_, err := ParseDeadline(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}

	return v
}

// deadlineLayouts lists the accepted deadline formats, most specific first.
var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDeadline parses a deadline in any accepted layout. Values without a
// zone are read as UTC.
func ParseDeadline(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized deadline %q", value)
}

// ParseTaskID parses a task identifier given as a decimal digit string.
func ParseTaskID(value string) (uint64, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, apierrors.Newf(apierrors.KindTypeMismatch, "task id must be a non-negative integer, got %q", value)
	}
	return id, nil
}

// TaskID is a task identifier that decodes from a JSON number or a digit string.
type TaskID uint64

// UnmarshalJSON implements json.Unmarshaler
func (id *TaskID) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return apierrors.New(apierrors.KindTypeMismatch, "task id must be a non-negative integer")
		}
		raw = unquoted
	}

	parsed, err := ParseTaskID(raw)
	if err != nil {
		return err
	}
	*id = TaskID(parsed)
	return nil
}

// Uint64 returns the identifier as a plain integer.
func (id TaskID) Uint64() uint64 {
	return uint64(id)
}

// TaskIDPtr converts an optional TaskID to an optional plain integer.
func TaskIDPtr(id *TaskID) *uint64 {
	if id == nil {
		return nil
	}
	v := id.Uint64()
	return &v
}

// ValidatePayload checks a raw payload against its validate tags. Violations
// are reported as a single VALIDATION_FAILED error listing every field.
func ValidatePayload(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.New(apierrors.KindValidation, err.Error())
	}

	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, describeFieldError(fe.Field(), fe))
	}
	return apierrors.NewWithDetails(apierrors.KindValidation, "invalid request", details)
}

func describeFieldError(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "min":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "deadline":
		return fmt.Sprintf("%s must be a date (YYYY-MM-DD) or a timestamp", name)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", name)
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}

// checkVar validates a single value against a tag expression.
func checkVar(field string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return apierrors.NewWithDetails(apierrors.KindValidation, "invalid "+field, []string{
				describeFieldError(field, fieldErrs[0]),
			})
		}
		return apierrors.New(apierrors.KindValidation, "invalid "+field)
	}
	return nil
}
