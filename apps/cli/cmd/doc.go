// Package cmd implements the jsonpost CLI commands using Cobra.
//
// Available commands:
//   - post: Send a JSON body to a URL and print the parsed response
//   - init: Write a default .jsonpost.yaml
//   - completion: Generate shell completion scripts
//   - version: Show jsonpost version information
package cmd
