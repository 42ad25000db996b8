package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/emplacamentos/pkg/dataset"
	"github.com/mark3labs/mcp-go/server"
)

type toolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError"`
}

func setupMCP(t *testing.T) *server.MCPServer {
	t.Helper()
	store := dataset.NewStore(nil, quietLogger())
	if _, err := store.LoadBytes("frota.csv", []byte(fleetCSV)); err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	srv := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterMCPTools(srv, NewEndpoints(store, Options{Now: func() time.Time { return now }, Logger: quietLogger()}))
	return srv
}

func callTool(t *testing.T, srv *server.MCPServer, name string, args map[string]any) toolResult {
	t.Helper()
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(srv.HandleMessage(context.Background(), msg))
	if err != nil {
		t.Fatal(err)
	}
	var resp struct {
		Result *toolResult `json:"result"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	if resp.Result == nil || len(resp.Result.Content) == 0 {
		t.Fatalf("%s: empty result: %s", name, raw)
	}
	return *resp.Result
}

func TestMCP_ToolsList(t *testing.T) {
	srv := setupMCP(t)
	raw, _ := json.Marshal(srv.HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`)))

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatal(err)
	}
	found := make(map[string]bool)
	for _, tool := range resp.Result.Tools {
		found[tool.Name] = true
	}
	for _, want := range []string{"search_client", "client_profile", "market_overview", "inactive_clients", "dataset_info"} {
		if !found[want] {
			t.Errorf("tool %s not registered", want)
		}
	}
}

func TestMCP_SearchClient(t *testing.T) {
	srv := setupMCP(t)
	res := callTool(t, srv, "search_client", map[string]any{"query": "beta logistica"})
	if res.IsError {
		t.Fatalf("error result: %s", res.Content[0].Text)
	}
	var resp SearchResponse
	if err := json.Unmarshal([]byte(res.Content[0].Text), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TaxID != "52998224725" || resp.Client == nil || resp.Client.Total != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestMCP_MarketAndInactive(t *testing.T) {
	srv := setupMCP(t)

	res := callTool(t, srv, "market_overview", map[string]any{"brands": "IVECO", "top_cities": 1})
	var market MarketResponse
	if err := json.Unmarshal([]byte(res.Content[0].Text), &market); err != nil {
		t.Fatal(err)
	}
	if market.Summary.Registrations != 1 || len(market.TopCities) != 1 || market.TopCities[0].Value != "Olinda" {
		t.Errorf("market = %+v", market)
	}

	res = callTool(t, srv, "inactive_clients", map[string]any{"segments": "VAN"})
	var inactive InactiveResponse
	if err := json.Unmarshal([]byte(res.Content[0].Text), &inactive); err != nil {
		t.Fatal(err)
	}
	if inactive.Count != 1 || inactive.Clients[0].TaxID != "11222333000181" {
		t.Errorf("inactive = %+v", inactive)
	}
}

func TestMCP_ProfileNotFound(t *testing.T) {
	srv := setupMCP(t)
	res := callTool(t, srv, "client_profile", map[string]any{"tax_id": "00000000000"})
	if !res.IsError || !strings.Contains(res.Content[0].Text, "not found") {
		t.Errorf("result = %+v", res)
	}
}
