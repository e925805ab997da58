package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/wefixit/internal/errs"
	"github.com/and161185/wefixit/internal/model"
)

// Page limits shared by every listing.
const (
	MinLimit = 1
	MaxLimit = 100
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs struct tags and converts failures into errs.ValidationError.
func validateStruct(v *validator.Validate, in any) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := &errs.ValidationError{}
	for _, fe := range ves {
		out.Add(fe.Field(), tagMessage(fe))
	}
	return out
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "url":
		return "must be a valid URL"
	}
	if fe.Param() != "" {
		return fmt.Sprintf("failed on the '%s' rule (%s)", fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
}

func validatePage(p model.PageRequest) error {
	ve := &errs.ValidationError{}
	if p.Limit < MinLimit || p.Limit > MaxLimit {
		ve.Add("limit", fmt.Sprintf("must be between %d and %d", MinLimit, MaxLimit))
	}
	if p.Offset < 0 {
		ve.Add("offset", "must be greater than or equal to 0")
	}
	return ve.OrNil()
}

// parseID validates the identifier format. A malformed ID is reported
// exactly like a missing document.
func parseID(id string) (uuid.UUID, error) {
	u, err := uuid.FromString(id)
	if err != nil || u == uuid.Nil {
		return uuid.Nil, errs.ErrNotFound
	}
	return u, nil
}
