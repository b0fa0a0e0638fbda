package tool

import (
	"log/slog"

	"abramcp/internal/abra"
)

// NewCatalog builds the registry with the full operation catalog bound to one
// client.
func NewCatalog(client *abra.Client, logger *slog.Logger) *Registry {
	reg := NewRegistry(logger)
	reg.Register(NewQueryTool(client, logger))
	reg.Register(NewGetResourceTool(client, logger))
	reg.Register(NewListFirmsTool(client, logger))
	reg.Register(NewListInvoicesTool(client, logger))
	reg.Register(NewListProductsTool(client, logger))
	return reg
}
