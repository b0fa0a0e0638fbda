package tool

import (
	"context"
	"log/slog"

	"abramcp/internal/abra"
)

// ListInvoicesTool lists issued invoices with optional date-range and firm
// filters.
type ListInvoicesTool struct {
	client *abra.Client
	logger *slog.Logger
}

func NewListInvoicesTool(client *abra.Client, logger *slog.Logger) *ListInvoicesTool {
	return &ListInvoicesTool{client: client, logger: logger}
}

func (t *ListInvoicesTool) Name() string { return "abra_list_invoices" }

func (t *ListInvoicesTool) Description() string {
	return "Get a list of issued invoices from Abra Gen. " +
		"Returns invoice details including number, amount, customer, and period. " +
		"Supports date filtering and pagination."
}

func (t *ListInvoicesTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"from_date": {Type: "string", Description: "Start date for filtering (ISO format: YYYY-MM-DD or ISO datetime: YYYY-MM-DDTHH:MM:SS)"},
			"to_date":   {Type: "string", Description: "End date for filtering (ISO format: YYYY-MM-DD or ISO datetime: YYYY-MM-DDTHH:MM:SS)"},
			"firm_id":   {Type: "string", Description: "Filter by specific customer/firm ID"},
			"limit":     {Type: "integer", Description: "Maximum number of results to return (default: 50)"},
			"offset":    {Type: "integer", Description: "Number of results to skip for pagination (default: 0)"},
		},
		nil,
	)
}

func (t *ListInvoicesTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	fromDate := ArgsString(args, "from_date")
	toDate := ArgsString(args, "to_date")
	firmID := ArgsString(args, "firm_id")
	limit := ArgsInt(args, "limit", defaultLimit)
	offset := ArgsInt(args, "offset", defaultOffset)

	t.logger.Info("list invoices", "from", fromDate, "to", toDate, "firm", firmID)

	records, err := t.client.Query(ctx, "issuedinvoices", abra.Query{
		Select:  "ID,OrdNumber,Amount,DocDate,Firm_ID.Name",
		Where:   invoiceFilter(fromDate, toDate, firmID),
		OrderBy: "OrdNumber desc",
		Expand:  "Firm_ID",
		Skip:    abra.Int(offset),
		Take:    abra.Int(limit),
	})
	if err != nil {
		return "", err
	}
	return marshalPayload(map[string]any{
		"collection": "issuedinvoices",
		"count":      len(records),
		"invoices":   records,
	})
}
