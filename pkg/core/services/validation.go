package services

import (
	"errors"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/caffeinepub/liinks/pkg/core/domain"
)

var (
	validate   = validator.New(validator.WithRequiredStructEnabled())
	textPolicy = bluemonday.StrictPolicy()
)

// validateStruct runs the struct tags and converts failures into a
// domain.ValidationError.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &domain.ValidationError{}
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out.Fields = append(out.Fields, domain.FieldError{Field: fe.Field(), Rule: rule})
	}
	return out
}

// cleanText strips markup and surrounding whitespace from user text. The
// policy escapes entities, which are turned back into plain text here.
func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}
