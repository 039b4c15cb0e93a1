// Package store defines the conversation state store and its SQLite implementation.
package store

import (
	"context"

	"github.com/voyagent/voyagent/domain"
)

// Store persists session histories and turn records. Appends are durable
// before they return; loading an unknown session id yields an empty history.
type Store interface {
	// Message operations
	Load(ctx context.Context, sessionID string) ([]domain.Message, error)
	AppendMessage(ctx context.Context, message *domain.Message) error

	// Session operations
	ListSessions(ctx context.Context) ([]string, error)

	// Turn operations
	CreateTurn(ctx context.Context, turn *domain.Turn) error
	GetTurn(ctx context.Context, turnID string) (*domain.Turn, error)
	CompleteTurn(ctx context.Context, turnID string, status domain.TurnStatus, errData []byte) error

	// Event operations
	AppendEvent(ctx context.Context, event *domain.Event) error
	GetTurnEvents(ctx context.Context, turnID string) ([]domain.Event, error)

	// Lifecycle
	Close() error
}
