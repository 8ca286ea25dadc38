package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
)

// BuildService is the interface for building all templates of a project.
type BuildService interface {
	// Run discovers, renders and writes every template and returns the outcome.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs required to execute a build.
type BuildRequest struct {
	// Config is the loaded project configuration.
	Config config.Config

	// Env is the build environment exposed to templates. Defaults to "local".
	Env string

	// Root is the project directory templates and layouts resolve against.
	Root string

	// OutputDir overrides build.templates.destination.
	OutputDir string

	// Options provides optional build behavior modifiers.
	Options BuildOptions
}

// BuildOptions provides optional configuration for build behavior.
type BuildOptions struct {
	// DryRun renders templates without writing output or the report.
	DryRun bool

	// FailFast stops at the first template that fails to render.
	FailFast bool
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	// Status indicates overall build outcome.
	Status BuildStatus

	// Report lists every template with its fingerprints and timing.
	Report *Report

	// OutputPath is the directory rendered templates were written to.
	OutputPath string

	// Rendered is the count of templates rendered successfully.
	Rendered int

	// Failed is the count of templates that failed to render.
	Failed int

	// Duration is the total build execution time.
	Duration time.Duration

	// StartTime is when the build started.
	StartTime time.Time

	// EndTime is when the build completed.
	EndTime time.Time
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	// BuildStatusSuccess indicates every template rendered.
	BuildStatusSuccess BuildStatus = "success"

	// BuildStatusPartial indicates some templates failed to render.
	BuildStatusPartial BuildStatus = "partial"

	// BuildStatusFailed indicates the build could not complete.
	BuildStatusFailed BuildStatus = "failed"

	// BuildStatusCancelled indicates the build was cancelled.
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsTerminal returns true if the status represents a final state.
func (s BuildStatus) IsTerminal() bool {
	return s == BuildStatusSuccess || s == BuildStatusPartial ||
		s == BuildStatusFailed || s == BuildStatusCancelled
}

// IsSuccess returns true if the build completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess
}
