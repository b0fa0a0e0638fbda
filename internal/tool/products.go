package tool

import (
	"context"
	"log/slog"

	"abramcp/internal/abra"
)

// ListProductsTool lists products/store cards with optional search and
// pagination.
type ListProductsTool struct {
	client *abra.Client
	logger *slog.Logger
}

func NewListProductsTool(client *abra.Client, logger *slog.Logger) *ListProductsTool {
	return &ListProductsTool{client: client, logger: logger}
}

func (t *ListProductsTool) Name() string { return "abra_list_products" }

func (t *ListProductsTool) Description() string {
	return "Get a list of products/store cards from Abra Gen. " +
		"Returns product information including code, name, and EAN. " +
		"Supports searching and pagination."
}

func (t *ListProductsTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"search": {Type: "string", Description: "Search term to filter products by name or code (case-insensitive)"},
			"limit":  {Type: "integer", Description: "Maximum number of results to return (default: 50)"},
			"offset": {Type: "integer", Description: "Number of results to skip for pagination (default: 0)"},
		},
		nil,
	)
}

func (t *ListProductsTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	search := ArgsString(args, "search")
	limit := ArgsInt(args, "limit", defaultLimit)
	offset := ArgsInt(args, "offset", defaultOffset)

	var where string
	if search != "" {
		where = searchFilter(search)
	}

	t.logger.Info("list products", "search", search, "limit", limit, "offset", offset)

	records, err := t.client.Query(ctx, "storecards", abra.Query{
		Select:  "ID,Code,Name,EAN",
		Where:   where,
		OrderBy: "Code",
		Skip:    abra.Int(offset),
		Take:    abra.Int(limit),
	})
	if err != nil {
		return "", err
	}
	return marshalPayload(map[string]any{
		"collection": "storecards",
		"count":      len(records),
		"products":   records,
	})
}
