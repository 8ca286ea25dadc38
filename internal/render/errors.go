package render

import (
	"errors"
	"fmt"

	errs "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
)

// Sentinel errors. Render returns them wrapped in a *errors.ClassifiedError,
// so callers match with errors.Is and route with errors.GetCategory.
var (
	ErrEmptyInput       = errors.New("received empty string")
	ErrInvalidType      = errors.New("content must be a string")
	ErrInvalidConfig    = errors.New("invalid build config")
	ErrInvalidCSSConfig = errors.New("invalid css framework config")
	ErrMissingLayout    = errors.New("no layout configured")
	ErrCSSCompilation   = errors.New("css compilation failed")
	ErrCyclicLayout     = errors.New("cyclic layout reference")
)

func validationError(sentinel error, format string, args ...any) error {
	return errs.ValidationError(sentinel.Error()).
		WithCause(fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)).
		Build()
}

func configError(sentinel error, format string, args ...any) error {
	return errs.ConfigError(sentinel.Error()).
		WithCause(fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)).
		Build()
}

func cssCompilationError(layout string, err error) error {
	return errs.CSSError(ErrCSSCompilation.Error()).
		WithCause(fmt.Errorf("%w: %w", ErrCSSCompilation, err)).
		WithContext("layout", layout).
		Build()
}

func layoutError(sentinel error, layout string, format string, args ...any) error {
	return errs.TemplateError(sentinel.Error()).
		WithCause(fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)).
		WithContext("layout", layout).
		UserAction().
		Build()
}

func templateError(message, layout string, err error) error {
	b := errs.WrapError(err, errs.CategoryTemplate, message)
	if layout != "" {
		b = b.WithContext("layout", layout)
	}
	return b.Build()
}

func hookError(name string, err error) error {
	return errs.WrapError(err, errs.CategoryHook, name+" hook failed").
		WithContext("hook", name).
		Build()
}
