// Package tool implements the operation catalog: named, schema-described
// operations over the Abra Gen business-object store.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"abramcp/internal/abra"
)

const (
	defaultLimit  = 50
	defaultOffset = 0
)

// missingArg is the validation failure for a required argument absent from
// the call, raised before any network traffic.
func missingArg(name string) error {
	return &abra.Error{Kind: abra.KindValidation, Message: fmt.Sprintf("missing required argument: %s", name)}
}

// marshalPayload renders the structured textual result.
func marshalPayload(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(b), nil
}

// QueryTool is the free-form escape hatch: all query options against a
// caller-supplied collection.
type QueryTool struct {
	client *abra.Client
	logger *slog.Logger
}

func NewQueryTool(client *abra.Client, logger *slog.Logger) *QueryTool {
	return &QueryTool{client: client, logger: logger}
}

func (t *QueryTool) Name() string { return "abra_query" }

func (t *QueryTool) Description() string {
	return "Execute a flexible query on any Abra Gen business object collection. " +
		"Supports filtering (where), field selection (select), sorting (orderby), " +
		"expanding related objects (expand), and pagination (skip/take). " +
		"Use this for custom queries on any collection like 'issuedinvoices', 'firms', 'storecards', etc."
}

func (t *QueryTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"collection": {Type: "string", Description: "Business object collection name (e.g., 'issuedinvoices', 'firms', 'storecards', 'receivedorders', 'accounts')"},
			"select":     {Type: "string", Description: "Fields to return, comma-separated (e.g., 'ID,Code,Name' or 'ID,Amount,Firm_ID.Name'). Use '*' for all fields."},
			"where":      {Type: "string", Description: "Filter condition using Abra query language (e.g., 'Amount gt 10000', \"Code eq 'ABC'\")"},
			"orderby":    {Type: "string", Description: "Sorting specification (e.g., 'Amount desc', 'Name', 'Firm_ID.Code,Amount desc')"},
			"expand":     {Type: "string", Description: "Include related objects (e.g., 'Firm_ID', 'Firm_ID(ID,Name)', 'Rows')"},
			"skip":       {Type: "integer", Description: "Number of records to skip for pagination"},
			"take":       {Type: "integer", Description: "Maximum number of records to return (limit)"},
		},
		[]string{"collection"},
	)
}

func (t *QueryTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	collection := ArgsString(args, "collection")
	if collection == "" {
		return "", missingArg("collection")
	}

	q := abra.Query{
		Select:  ArgsString(args, "select"),
		Where:   ArgsString(args, "where"),
		OrderBy: ArgsString(args, "orderby"),
		Expand:  ArgsString(args, "expand"),
	}
	if HasArg(args, "skip") {
		q.Skip = abra.Int(ArgsInt(args, "skip", 0))
	}
	if HasArg(args, "take") {
		q.Take = abra.Int(ArgsInt(args, "take", 0))
	}

	t.logger.Info("query", "collection", collection, "select", q.Select, "where", q.Where)

	records, err := t.client.Query(ctx, collection, q)
	if err != nil {
		return "", err
	}
	return marshalPayload(map[string]any{
		"collection": collection,
		"count":      len(records),
		"results":    records,
	})
}

// GetResourceTool fetches one business object by id.
type GetResourceTool struct {
	client *abra.Client
	logger *slog.Logger
}

func NewGetResourceTool(client *abra.Client, logger *slog.Logger) *GetResourceTool {
	return &GetResourceTool{client: client, logger: logger}
}

func (t *GetResourceTool) Name() string { return "abra_get_resource" }

func (t *GetResourceTool) Description() string {
	return "Get a specific resource by ID from any Abra Gen collection. " +
		"Returns detailed information about a single business object. " +
		"Useful when you know the exact ID of the record you want to retrieve."
}

func (t *GetResourceTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"collection":  {Type: "string", Description: "Business object collection name (e.g., 'issuedinvoices', 'firms', 'storecards')"},
			"resource_id": {Type: "string", Description: "ID of the resource to retrieve"},
			"expand":      {Type: "string", Description: "Include related objects (e.g., 'Firm_ID', 'Rows', 'Firm_ID(ID,Name)')"},
		},
		[]string{"collection", "resource_id"},
	)
}

func (t *GetResourceTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	collection := ArgsString(args, "collection")
	if collection == "" {
		return "", missingArg("collection")
	}
	resourceID := ArgsString(args, "resource_id")
	if resourceID == "" {
		return "", missingArg("resource_id")
	}

	params := map[string]string{}
	if expand := ArgsString(args, "expand"); expand != "" {
		params["expand"] = expand
	}

	t.logger.Info("get resource", "collection", collection, "id", resourceID)

	result, err := t.client.Get(ctx, collection, resourceID, "", params)
	if err != nil {
		return "", err
	}
	return marshalPayload(result.Value())
}
