package tool

import (
	"context"
	"log/slog"

	"abramcp/internal/abra"
)

// ListFirmsTool lists firms/customers with optional search and pagination.
type ListFirmsTool struct {
	client *abra.Client
	logger *slog.Logger
}

func NewListFirmsTool(client *abra.Client, logger *slog.Logger) *ListFirmsTool {
	return &ListFirmsTool{client: client, logger: logger}
}

func (t *ListFirmsTool) Name() string { return "abra_list_firms" }

func (t *ListFirmsTool) Description() string {
	return "Get a list of firms/customers from Abra Gen. " +
		"Returns basic information including ID, code, name, and contact details. " +
		"Supports searching and pagination."
}

func (t *ListFirmsTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"search": {Type: "string", Description: "Search term to filter firms by name or code (case-insensitive)"},
			"limit":  {Type: "integer", Description: "Maximum number of results to return (default: 50)"},
			"offset": {Type: "integer", Description: "Number of results to skip for pagination (default: 0)"},
		},
		nil,
	)
}

func (t *ListFirmsTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	search := ArgsString(args, "search")
	limit := ArgsInt(args, "limit", defaultLimit)
	offset := ArgsInt(args, "offset", defaultOffset)

	var where string
	if search != "" {
		where = searchFilter(search)
	}

	t.logger.Info("list firms", "search", search, "limit", limit, "offset", offset)

	records, err := t.client.Query(ctx, "firms", abra.Query{
		Select:  "ID,Code,Name,Email,Phone",
		Where:   where,
		OrderBy: "Name",
		Skip:    abra.Int(offset),
		Take:    abra.Int(limit),
	})
	if err != nil {
		return "", err
	}
	return marshalPayload(map[string]any{
		"collection": "firms",
		"count":      len(records),
		"firms":      records,
	})
}
