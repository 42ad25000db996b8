package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/emplacamentos/pkg/analytics"
	"github.com/hazyhaar/emplacamentos/pkg/client"
	"github.com/hazyhaar/emplacamentos/pkg/dataset"
	"github.com/hazyhaar/emplacamentos/pkg/kit"
	"github.com/hazyhaar/emplacamentos/pkg/predict"
	"github.com/hazyhaar/emplacamentos/pkg/record"
	"github.com/hazyhaar/emplacamentos/pkg/search"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrInvalidRequest = errors.New("invalid request")
)

// Shared request/response types used by both HTTP and MCP transports.

type searchReq struct {
	Query  string
	Filter record.Filter
}

type profileReq struct {
	TaxID  string
	Filter record.Filter
}

type marketReq struct {
	Filter    record.Filter
	TopCities int
}

type inactiveReq struct {
	Filter record.Filter
}

type uploadReq struct {
	Name string
	Data []byte
}

// ClientView is everything shown for one resolved client.
type ClientView struct {
	*client.Profile
	Preferences client.Preferences  `json:"preferences"`
	History     []client.MonthCount `json:"history"`
	Prediction  predict.Prediction  `json:"prediction"`
	Pitch       predict.Pitch       `json:"pitch"`
}

// SearchResponse carries the match outcome and, when a single client was
// found, its full view.
type SearchResponse struct {
	search.Match
	Client *ClientView `json:"client,omitempty"`
}

// MarketResponse is the dataset-wide overview.
type MarketResponse struct {
	Summary      analytics.Summary      `json:"summary"`
	ByYear       []analytics.YearCount  `json:"by_year"`
	BrandByYear  analytics.BrandPivot   `json:"brand_by_year"`
	Brands       []analytics.Count      `json:"brands"`
	Segments     []analytics.Count      `json:"segments"`
	TopCities    []analytics.Count      `json:"top_cities"`
	MonthlyTrend []analytics.MonthCount `json:"monthly_trend"`
	Filters      FilterOptions          `json:"filters"`
}

// FilterOptions lists the values a filter can select.
type FilterOptions struct {
	Brands   []string `json:"brands"`
	Segments []string `json:"segments"`
}

// InactiveResponse is the inactive-client report.
type InactiveResponse struct {
	Count   int                        `json:"count"`
	Clients []analytics.InactiveClient `json:"clients"`
}

// DatasetInfo describes the loaded snapshot.
type DatasetInfo struct {
	SnapshotID uuid.UUID      `json:"snapshot_id"`
	Source     dataset.Source `json:"source"`
	LoadedAt   time.Time      `json:"loaded_at"`
	Stats      record.Stats   `json:"stats"`
	Clients    int            `json:"clients"`
}

// Options tune the endpoints.
type Options struct {
	TopCities int
	Now       func() time.Time
	Logger    *slog.Logger
}

// Endpoints are the transport-agnostic actions served over HTTP and MCP.
type Endpoints struct {
	Search   kit.Endpoint
	Profile  kit.Endpoint
	Market   kit.Endpoint
	Inactive kit.Endpoint
	Dataset  kit.Endpoint
	Upload   kit.Endpoint

	store *dataset.Store
}

// NewEndpoints builds the endpoints over store.
func NewEndpoints(store *dataset.Store, opts Options) *Endpoints {
	if opts.TopCities <= 0 {
		opts.TopCities = 15
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.RequestID(), kit.Logging(opts.Logger, name))(ep)
	}
	return &Endpoints{
		Search:   wrap("search", searchEndpoint(store, opts.Now)),
		Profile:  wrap("profile", profileEndpoint(store, opts.Now)),
		Market:   wrap("market", marketEndpoint(store, opts.TopCities)),
		Inactive: wrap("inactive", inactiveEndpoint(store, opts.Now)),
		Dataset:  wrap("dataset", datasetEndpoint(store)),
		Upload:   wrap("upload", uploadEndpoint(store)),
		store:    store,
	}
}

// NewClientView assembles the profile, prediction and pitch of one client.
func NewClientView(recs []record.Record, now time.Time) *ClientView {
	p := client.NewProfile(recs)
	pred := predict.Predict(p.Dates)
	return &ClientView{
		Profile:     p,
		Preferences: p.Preferences(),
		History:     p.MonthlyHistory(),
		Prediction:  pred,
		Pitch:       predict.NewPitch(p.LastPurchase(), pred.NextPurchase, p.Total, now),
	}
}

func searchEndpoint(store *dataset.Store, now func() time.Time) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*searchReq)
		snap, err := store.Current()
		if err != nil {
			return nil, err
		}
		records := snap.Filtered(req.Filter)
		resp := SearchResponse{Match: search.Resolve(req.Query, records)}
		if resp.Kind == search.KindFound {
			recs, _ := search.Select(resp.TaxID, records)
			resp.Client = NewClientView(recs, now())
		}
		return resp, nil
	}
}

func profileEndpoint(store *dataset.Store, now func() time.Time) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*profileReq)
		if record.TaxIDDigits(req.TaxID) == "" {
			return nil, fmt.Errorf("%w: missing tax id", ErrInvalidRequest)
		}
		snap, err := store.Current()
		if err != nil {
			return nil, err
		}
		recs, ok := search.Select(req.TaxID, snap.Filtered(req.Filter))
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrClientNotFound, req.TaxID)
		}
		return NewClientView(recs, now()), nil
	}
}

func marketEndpoint(store *dataset.Store, defaultTop int) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*marketReq)
		snap, err := store.Current()
		if err != nil {
			return nil, err
		}
		top := req.TopCities
		if top <= 0 {
			top = defaultTop
		}
		records := snap.Filtered(req.Filter)
		return MarketResponse{
			Summary:      analytics.Summarize(records),
			ByYear:       analytics.CountByYear(records),
			BrandByYear:  analytics.BrandByYear(records),
			Brands:       analytics.CountByBrand(records),
			Segments:     analytics.CountBySegment(records),
			TopCities:    analytics.TopCities(records, top),
			MonthlyTrend: analytics.MonthlyTrend(records),
			Filters: FilterOptions{
				Brands:   record.Distinct(snap.Records, client.Brand),
				Segments: record.Distinct(snap.Records, client.Segment),
			},
		}, nil
	}
}

func inactiveEndpoint(store *dataset.Store, now func() time.Time) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*inactiveReq)
		snap, err := store.Current()
		if err != nil {
			return nil, err
		}
		rows := analytics.InactiveClients(snap.Filtered(req.Filter), now())
		return InactiveResponse{Count: len(rows), Clients: rows}, nil
	}
}

func datasetEndpoint(store *dataset.Store) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		snap, err := store.Current()
		if err != nil {
			return nil, err
		}
		return infoOf(snap), nil
	}
}

func uploadEndpoint(store *dataset.Store) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*uploadReq)
		if req.Name == "" || len(req.Data) == 0 {
			return nil, fmt.Errorf("%w: file name and content are required", ErrInvalidRequest)
		}
		snap, err := store.LoadBytes(req.Name, req.Data)
		if err != nil {
			return nil, err
		}
		return infoOf(snap), nil
	}
}

func infoOf(snap *dataset.Snapshot) DatasetInfo {
	return DatasetInfo{
		SnapshotID: snap.ID,
		Source:     snap.Source,
		LoadedAt:   snap.LoadedAt,
		Stats:      snap.Stats,
		Clients:    snap.Index.Len(),
	}
}
