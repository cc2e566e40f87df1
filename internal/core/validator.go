package core

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"hivewatch/internal/types"
)

// ValidationError describes a single field failure returned to clients under
// details.validation_errors.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult separates hard failures from advisory warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []string
}

// IsValid reports whether no errors were recorded. Warnings do not count.
func (r ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Validator wraps go-playground/validator with the closed hive enumerations
// registered as tags.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// enumTags maps each custom tag to the membership check of its enumeration.
var enumTags = map[string]func(string) bool{
	"queen_presence":      func(v string) bool { return types.QueenPresence(v).Valid() },
	"queen_laying":        func(v string) bool { return types.QueenLaying(v).Valid() },
	"brood_pattern":       func(v string) bool { return types.BroodPattern(v).Valid() },
	"population_strength": func(v string) bool { return types.PopulationStrength(v).Valid() },
	"food_stores":         func(v string) bool { return types.FoodStores(v).Valid() },
	"risk_level":          func(v string) bool { return types.RiskLevel(v).Valid() },
	"hive_type":           func(v string) bool { return types.HiveType(v).Valid() },
	"hive_status":         func(v string) bool { return types.HiveStatus(v).Valid() },
}

// NewValidator creates a Validator that reports fields by their JSON names.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	for tag, valid := range enumTags {
		valid := valid
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return valid(fl.Field().String())
		}); err != nil {
			// Registration only fails on an empty tag or nil func.
			panic(fmt.Sprintf("register validation %q: %v", tag, err))
		}
	}

	return &Validator{
		validate: v,
		logger:   logger,
	}
}

// ValidateStruct validates s and returns a *types.AppError whose code follows
// the first failing field. All failures are listed in
// details.validation_errors.
func (v *Validator) ValidateStruct(s any) error {
	result := v.ValidateStructWithWarnings(s)
	if result.IsValid() {
		return nil
	}

	first := result.Errors[0]
	return types.NewAppErrorWithDetails(
		types.ErrorCode(first.Code),
		first.Message,
		nil,
		map[string]any{"validation_errors": result.Errors},
	)
}

// ValidateStructWithWarnings collects every failure without short-circuiting.
func (v *Validator) ValidateStructWithWarnings(s any) ValidationResult {
	var result ValidationResult

	err := v.validate.Struct(s)
	if err == nil {
		return result
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.logger.Error("validator misuse", slog.String("error", err.Error()))
		result.Errors = append(result.Errors, ValidationError{
			Field:   "",
			Code:    string(types.ErrCodeValidationInvalidFormat),
			Message: "request could not be validated",
		})
		return result
	}

	for _, fe := range fieldErrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fieldPath(fe),
			Code:    tagToErrorCode(fe.Tag()),
			Message: fieldMessage(fe),
		})
	}
	return result
}

// fieldPath drops the root struct name from the namespace, leaving the
// dotted JSON path.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func tagToErrorCode(tag string) string {
	if _, ok := enumTags[tag]; ok {
		return string(types.ErrCodeValidationInvalidEnum)
	}
	switch tag {
	case "required", "required_with", "required_without":
		return string(types.ErrCodeValidationMissingField)
	case "oneof":
		return string(types.ErrCodeValidationInvalidEnum)
	case "min", "max", "gte", "lte", "gt", "lt", "latitude", "longitude":
		return string(types.ErrCodeValidationOutOfRange)
	default:
		return string(types.ErrCodeValidationInvalidFormat)
	}
}

func fieldMessage(fe validator.FieldError) string {
	field := fieldPath(fe)
	if _, ok := enumTags[fe.Tag()]; ok {
		return fmt.Sprintf("%s has an unsupported value %q", field, fe.Value())
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "latitude":
		return fmt.Sprintf("%s must be between -90 and 90", field)
	case "longitude":
		return fmt.Sprintf("%s must be between -180 and 180", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
