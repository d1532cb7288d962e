// Package report runs comparisons across frameworks and renders them as
// tables, JSON or YAML.
package report
