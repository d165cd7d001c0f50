// Package messages defines Bubbletea message types for the chat TUI.
package messages

import (
	"github.com/custodia-labs/scribe/internal/core/domain"
)

// AnswerReceived carries the result of one question back to the model.
type AnswerReceived struct {
	Question string
	Response *domain.QueryResponse
	Err      error
}
