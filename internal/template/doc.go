// Package template seeds workflow artifacts from templates.
//
// Template resolution per artifact kind: a manifest override, then the
// conventional "<kind>-template.md" file in the project template
// directory, then the embedded default. CreateFromTemplate never
// overwrites an existing artifact.
package template
