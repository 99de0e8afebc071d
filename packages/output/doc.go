// Package output provides formatters for displaying a jsonpost response.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON envelope
//   - YAML: The same envelope rendered as YAML
//
// Formatters never decide exit codes; they only render what the caller passes.
package output
