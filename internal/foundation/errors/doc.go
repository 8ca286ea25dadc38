// Package errors provides the classified error primitives used across mailbuilder.
//
// A ClassifiedError carries a category (config, validation, template, css, ...),
// a severity and an optional cause. Sentinel errors wrapped as the cause stay
// reachable through errors.Is.
//
//	err := errors.WrapError(ErrMissingLayout, errors.CategoryConfig, "no layout configured").
//		UserAction().
//		WithContext("template", name).
//		Build()
package errors
