package build

import "errors"

// Sentinel errors classifying build failures. They are always wrapped with
// contextual information at the call site.
var (
	ErrDiscovery = errors.New("mailbuilder: template discovery error")
	ErrRender    = errors.New("mailbuilder: template render error")
	ErrWrite     = errors.New("mailbuilder: output write error")
)
