package mandays

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// AuditType identifies which audit of the certification cycle is being planned.
type AuditType string

const (
	AuditInitial         AuditType = "initial"
	AuditSurveillance    AuditType = "surveillance"
	AuditRecertification AuditType = "recertification"
)

// AuditTypes lists every accepted audit type in cycle order.
var AuditTypes = []AuditType{AuditInitial, AuditSurveillance, AuditRecertification}

// Input holds the audit parameters of one calculation request.
type Input struct {
	Standard            string    `json:"standard" validate:"required"`
	Category            string    `json:"category" validate:"required"`
	AuditType           AuditType `json:"auditType" validate:"required,oneof=initial surveillance recertification"`
	Employees           int       `json:"employees" validate:"gt=0"`
	Sites               int       `json:"sites" validate:"gt=0"`
	HACCPStudies        int       `json:"haccpStudies" validate:"gte=0"`
	RiskLevel           string    `json:"riskLevel" validate:"required"`
	IntegratedStandards []string  `json:"integratedStandards" validate:"dive,required"`
}

// NewInput returns an Input with the caller-facing defaults applied.
func NewInput() Input {
	return Input{AuditType: AuditInitial, Sites: 1, RiskLevel: "medium"}
}

// Normalize trims string fields and drops blank or repeated integrated standards.
func (in *Input) Normalize() {
	in.Standard = strings.TrimSpace(in.Standard)
	in.Category = strings.TrimSpace(in.Category)
	in.RiskLevel = strings.TrimSpace(in.RiskLevel)
	in.AuditType = AuditType(strings.TrimSpace(string(in.AuditType)))

	ids := make([]string, 0, len(in.IntegratedStandards))
	for _, id := range in.IntegratedStandards {
		id = strings.TrimSpace(id)
		if id != "" {
			ids = append(ids, id)
		}
	}
	in.IntegratedStandards = uniqueIDs(ids)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidateInput checks input against the field rules and against cfg, returning one
// human-readable message per problem. An empty result means Compute can be called.
func ValidateInput(input Input, cfg Configuration) []string {
	var messages []string

	if err := validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return []string{err.Error()}
		}
		for _, fe := range fieldErrs {
			messages = append(messages, fieldMessage(fe))
		}
	}

	if input.Standard != "" {
		categories, ok := cfg.BaseManDays[input.Standard]
		switch {
		case !ok:
			messages = append(messages, fmt.Sprintf("standard %q is not configured", input.Standard))
		case input.Category != "":
			if v, ok := categories[input.Category]; !ok || v <= 0 {
				messages = append(messages, fmt.Sprintf("category %q is not available for standard %s", input.Category, input.Standard))
			}
		}
	}
	if input.RiskLevel != "" {
		if _, ok := cfg.RiskMultipliers[input.RiskLevel]; !ok {
			messages = append(messages, fmt.Sprintf("risk level %q is not configured", input.RiskLevel))
		}
	}
	return messages
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	if strings.HasPrefix(fe.Namespace(), "Input.integratedStandards") {
		field = "integratedStandards"
	}
	switch fe.Tag() {
	case "required":
		if field == "integratedStandards" {
			return "integratedStandards must not contain blank entries"
		}
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}
