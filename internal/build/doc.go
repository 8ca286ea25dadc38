// Package build renders every template of a project.
//
// A build discovers templates with doublestar globs, renders each through the
// render pipeline and writes the results plus a report.json describing the
// run into the destination directory. The CLI build and watch commands both
// route through BuildService.
package build
