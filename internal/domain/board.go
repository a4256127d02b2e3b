package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ColumnKey identifies a kanban column within a board type.
type ColumnKey string

type BoardType string

const (
	BoardTypeTasks      BoardType = "tasks"
	BoardTypeShopping   BoardType = "shopping"
	BoardTypeActivities BoardType = "activities"
)

func (t BoardType) Valid() bool {
	switch t {
	case BoardTypeTasks, BoardTypeShopping, BoardTypeActivities:
		return true
	default:
		return false
	}
}

// Column is the display metadata of one column.
type Column struct {
	Key   ColumnKey `json:"key" yaml:"key"`
	Title string    `json:"title" yaml:"title"`
}

// ColumnConfig maps each board type to its ordered column set.
type ColumnConfig map[BoardType][]Column

// DefaultColumnConfig returns the built-in column layout for every board type.
func DefaultColumnConfig() ColumnConfig {
	return ColumnConfig{
		BoardTypeTasks: {
			{Key: "idea", Title: "Ideas"},
			{Key: "todo", Title: "To do"},
			{Key: "in_progress", Title: "In progress"},
			{Key: "done", Title: "Done"},
		},
		BoardTypeShopping: {
			{Key: "to_buy", Title: "To buy"},
			{Key: "in_cart", Title: "In cart"},
			{Key: "bought", Title: "Bought"},
		},
		BoardTypeActivities: {
			{Key: "planned", Title: "Planned"},
			{Key: "ongoing", Title: "Ongoing"},
			{Key: "completed", Title: "Completed"},
		},
	}
}

// Columns returns the ordered columns for a board type, or nil when unknown.
func (c ColumnConfig) Columns(t BoardType) []Column {
	return c[t]
}

// Keys returns the ordered column keys for a board type.
func (c ColumnConfig) Keys(t BoardType) []ColumnKey {
	cols := c[t]
	keys := make([]ColumnKey, len(cols))
	for i, col := range cols {
		keys[i] = col.Key
	}
	return keys
}

// Has reports whether key is a column of board type t.
func (c ColumnConfig) Has(t BoardType, key ColumnKey) bool {
	for _, col := range c[t] {
		if col.Key == key {
			return true
		}
	}
	return false
}

type Board struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      BoardType `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBoard creates a Board with validated required fields.
func NewBoard(name string, boardType BoardType) (*Board, error) {
	if name == "" {
		return nil, errors.New("board: name is required")
	}
	if !boardType.Valid() {
		return nil, errors.New("board: unknown board type")
	}
	return &Board{
		ID:        uuid.New(),
		Name:      name,
		Type:      boardType,
		CreatedAt: time.Now(),
	}, nil
}

type BoardRepository interface {
	Create(ctx context.Context, b *Board) error
	GetByID(ctx context.Context, id uuid.UUID) (*Board, error)
	List(ctx context.Context) ([]*Board, error)
}
