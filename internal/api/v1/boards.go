package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/gosuda/kira/internal/board"
	"github.com/gosuda/kira/internal/domain"
)

type CreateBoardInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"200" doc:"Board name"`
		Type string `json:"type" enum:"tasks,shopping,activities" doc:"Board type"`
	}
}

type BoardView struct {
	Board   *domain.Board   `json:"board"`
	Columns []domain.Column `json:"columns"`
}

type BoardOutput struct {
	Body *BoardView
}

type ListBoardsOutput struct {
	Body []*domain.Board
}

type GetBoardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
}

type GetColumnsInput struct {
	BoardID    uuid.UUID `path:"boardID" doc:"Board ID"`
	Labels     []string  `query:"label" doc:"Label IDs; a task matches if it has any of them"`
	Priorities []string  `query:"priority" doc:"Priorities; a task matches if it has any of them"`
	Assignees  []string  `query:"assignee" doc:"Assignee IDs; a task matches if assigned to any of them"`
	Search     string    `query:"search" doc:"Case-insensitive substring of title or description"`
}

type ColumnView struct {
	Key   domain.ColumnKey `json:"key"`
	Title string           `json:"title"`
	Tasks []*domain.Task   `json:"tasks"`
}

type GetColumnsOutput struct {
	Body []ColumnView
}

// RegisterBoardRoutes registers board endpoints. locale drives
// case-insensitive search in the column projection.
func RegisterBoardRoutes(api huma.API, store DataStore, columns domain.ColumnConfig, locale language.Tag) {
	matcher := board.Matcher{Locale: locale}

	huma.Register(api, huma.Operation{
		OperationID:   "create-board",
		Method:        http.MethodPost,
		Path:          "/boards",
		Summary:       "Create a board",
		Tags:          []string{"Boards"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateBoardInput) (*BoardOutput, error) {
		b, err := domain.NewBoard(input.Body.Name, domain.BoardType(input.Body.Type))
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}

		if err := store.Boards().Create(ctx, b); err != nil {
			return nil, huma.Error500InternalServerError("failed to create board", err)
		}

		return &BoardOutput{Body: &BoardView{Board: b, Columns: columns.Columns(b.Type)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-boards",
		Method:      http.MethodGet,
		Path:        "/boards",
		Summary:     "List boards",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, _ *struct{}) (*ListBoardsOutput, error) {
		boards, err := store.Boards().List(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list boards", err)
		}
		if boards == nil {
			boards = []*domain.Board{}
		}

		return &ListBoardsOutput{Body: boards}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}",
		Summary:     "Get a board and its columns",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *GetBoardInput) (*BoardOutput, error) {
		b, err := store.Boards().GetByID(ctx, input.BoardID)
		if err != nil {
			return nil, toHTTPError(err, "board")
		}

		return &BoardOutput{Body: &BoardView{Board: b, Columns: columns.Columns(b.Type)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-board-columns",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/columns",
		Summary:     "Get the filtered, ordered tasks of every column",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *GetColumnsInput) (*GetColumnsOutput, error) {
		filters, err := input.filterState()
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}

		b, err := store.Boards().GetByID(ctx, input.BoardID)
		if err != nil {
			return nil, toHTTPError(err, "board")
		}

		tasks, err := store.Tasks().ListByBoard(ctx, b.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list tasks for board", err)
		}

		cols := columns.Columns(b.Type)
		projection := board.ProjectWith(matcher, tasks, columns.Keys(b.Type), filters)

		out := make([]ColumnView, len(cols))
		for i, c := range cols {
			out[i] = ColumnView{Key: c.Key, Title: c.Title, Tasks: projection[c.Key]}
		}

		return &GetColumnsOutput{Body: out}, nil
	})
}

func (in *GetColumnsInput) filterState() (domain.FilterState, error) {
	var f domain.FilterState

	labels, err := parseIDs(in.Labels)
	if err != nil {
		return f, errors.New("label: " + err.Error())
	}
	assignees, err := parseIDs(in.Assignees)
	if err != nil {
		return f, errors.New("assignee: " + err.Error())
	}
	for _, p := range in.Priorities {
		if !domain.Priority(p).Valid() {
			return f, errors.New("priority: unknown value " + p)
		}
		f.Priorities = append(f.Priorities, domain.Priority(p))
	}

	f.Labels = labels
	f.Assignees = assignees
	f.Search = in.Search
	return f, nil
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
