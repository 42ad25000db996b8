package api

import (
	"strings"

	"github.com/hazyhaar/emplacamentos/pkg/kit"
	"github.com/hazyhaar/emplacamentos/pkg/record"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers the sales lookup tools on the server.
func RegisterMCPTools(srv *server.MCPServer, eps *Endpoints) {
	registerSearchClient(srv, eps)
	registerClientProfile(srv, eps)
	registerMarketOverview(srv, eps)
	registerInactiveClients(srv, eps)
	registerDatasetInfo(srv, eps)
}

func filterOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("brands", mcp.Description("Comma-separated brand filter (e.g. VOLVO,SCANIA)")),
		mcp.WithString("segments", mcp.Description("Comma-separated segment filter (e.g. CAMINHOES)")),
	}
}

func filterArgs(args map[string]any) record.Filter {
	var f record.Filter
	if v, _ := args["brands"].(string); v != "" {
		f.Brands = splitList(v)
	}
	if v, _ := args["segments"].(string); v != "" {
		f.Segments = splitList(v)
	}
	return f
}

func registerSearchClient(srv *server.MCPServer, eps *Endpoints) {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Find a client by plate, CNPJ/CPF or name and return their purchase profile, next-purchase prediction and sales pitch."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Plate, tax ID (digits, punctuation allowed) or part of the client name")),
	}, filterOptions()...)
	tool := mcp.NewTool("search_client", opts...)

	kit.RegisterMCPTool(srv, tool, eps.Search, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		q, _ := args["query"].(string)
		return &kit.MCPDecodeResult{Request: &searchReq{
			Query:  strings.TrimSpace(q),
			Filter: filterArgs(args),
		}}, nil
	})
}

func registerClientProfile(srv *server.MCPServer, eps *Endpoints) {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Return the full profile of one client identified by CNPJ or CPF."),
		mcp.WithString("tax_id", mcp.Required(), mcp.Description("Client CNPJ or CPF")),
	}, filterOptions()...)
	tool := mcp.NewTool("client_profile", opts...)

	kit.RegisterMCPTool(srv, tool, eps.Profile, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		id, _ := args["tax_id"].(string)
		return &kit.MCPDecodeResult{Request: &profileReq{TaxID: id, Filter: filterArgs(args)}}, nil
	})
}

func registerMarketOverview(srv *server.MCPServer, eps *Endpoints) {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Summarize the loaded registrations: totals, sales by year, brand and segment shares, top cities and monthly trend."),
		mcp.WithNumber("top_cities", mcp.Description("Number of cities to rank (default 15)")),
	}, filterOptions()...)
	tool := mcp.NewTool("market_overview", opts...)

	kit.RegisterMCPTool(srv, tool, eps.Market, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		top, _ := args["top_cities"].(float64)
		return &kit.MCPDecodeResult{Request: &marketReq{
			Filter:    filterArgs(args),
			TopCities: int(top),
		}}, nil
	})
}

func registerInactiveClients(srv *server.MCPServer, eps *Endpoints) {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("List clients with no purchase for more than 12 months, longest inactive first."),
	}, filterOptions()...)
	tool := mcp.NewTool("inactive_clients", opts...)

	kit.RegisterMCPTool(srv, tool, eps.Inactive, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: &inactiveReq{Filter: filterArgs(req.GetArguments())}}, nil
	})
}

func registerDatasetInfo(srv *server.MCPServer, eps *Endpoints) {
	tool := mcp.NewTool("dataset_info",
		mcp.WithDescription("Describe the loaded spreadsheet: source file, load time and row counts."),
	)

	kit.RegisterMCPTool(srv, tool, eps.Dataset, func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}
