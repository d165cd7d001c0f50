// Package file provides file-backed implementations of driven ports.
//
// Adapters:
//   - ConfigStore: flat key/value view over config.toml, used by `scribe config get|set`
//   - PromptStore: user-editable generative prompt templates
package file
