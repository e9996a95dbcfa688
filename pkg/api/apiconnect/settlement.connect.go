package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// SettlementServiceName is the fully-qualified name of the SettlementService service.
const SettlementServiceName = "splitledger.v1.SettlementService"

// Procedure paths, for use with connect.Request.Spec and interceptors.
const (
	SettlementServiceGetSettlementProcedure    = "/splitledger.v1.SettlementService/GetSettlement"
	SettlementServiceRecordSettlementProcedure = "/splitledger.v1.SettlementService/RecordSettlement"
	SettlementServiceListSettlementsProcedure  = "/splitledger.v1.SettlementService/ListSettlements"
	SettlementServiceDeleteSettlementProcedure = "/splitledger.v1.SettlementService/DeleteSettlement"
)

// SettlementServiceHandler is the server side of SettlementService.
// SettlementService computes balances and settlement plans and records payments.
type SettlementServiceHandler interface {
	GetSettlement(context.Context, *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error)
	RecordSettlement(context.Context, *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error)
	ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error)
	DeleteSettlement(context.Context, *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error)
}

// NewSettlementServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewSettlementServiceHandler(svc SettlementServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	getSettlementHandler := connect.NewUnaryHandler(SettlementServiceGetSettlementProcedure, svc.GetSettlement, opts...)
	recordSettlementHandler := connect.NewUnaryHandler(SettlementServiceRecordSettlementProcedure, svc.RecordSettlement, opts...)
	listSettlementsHandler := connect.NewUnaryHandler(SettlementServiceListSettlementsProcedure, svc.ListSettlements, opts...)
	deleteSettlementHandler := connect.NewUnaryHandler(SettlementServiceDeleteSettlementProcedure, svc.DeleteSettlement, opts...)
	return "/splitledger.v1.SettlementService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case SettlementServiceGetSettlementProcedure:
			getSettlementHandler.ServeHTTP(w, r)
		case SettlementServiceRecordSettlementProcedure:
			recordSettlementHandler.ServeHTTP(w, r)
		case SettlementServiceListSettlementsProcedure:
			listSettlementsHandler.ServeHTTP(w, r)
		case SettlementServiceDeleteSettlementProcedure:
			deleteSettlementHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// SettlementServiceClient is a client for SettlementService.
type SettlementServiceClient interface {
	GetSettlement(context.Context, *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error)
	RecordSettlement(context.Context, *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error)
	ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error)
	DeleteSettlement(context.Context, *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error)
}

// NewSettlementServiceClient constructs a client for SettlementService. baseURL is the server
// root, e.g. http://localhost:8080.
func NewSettlementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SettlementServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &settlementServiceClient{
		getSettlement: connect.NewClient[api.GetSettlementRequest, api.GetSettlementResponse](
			httpClient,
			baseURL+SettlementServiceGetSettlementProcedure,
			opts...,
		),
		recordSettlement: connect.NewClient[api.RecordSettlementRequest, api.RecordSettlementResponse](
			httpClient,
			baseURL+SettlementServiceRecordSettlementProcedure,
			opts...,
		),
		listSettlements: connect.NewClient[api.ListSettlementsRequest, api.ListSettlementsResponse](
			httpClient,
			baseURL+SettlementServiceListSettlementsProcedure,
			opts...,
		),
		deleteSettlement: connect.NewClient[api.DeleteSettlementRequest, api.DeleteSettlementResponse](
			httpClient,
			baseURL+SettlementServiceDeleteSettlementProcedure,
			opts...,
		),
	}
}

type settlementServiceClient struct {
	getSettlement    *connect.Client[api.GetSettlementRequest, api.GetSettlementResponse]
	recordSettlement *connect.Client[api.RecordSettlementRequest, api.RecordSettlementResponse]
	listSettlements  *connect.Client[api.ListSettlementsRequest, api.ListSettlementsResponse]
	deleteSettlement *connect.Client[api.DeleteSettlementRequest, api.DeleteSettlementResponse]
}

func (c *settlementServiceClient) GetSettlement(ctx context.Context, req *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error) {
	return c.getSettlement.CallUnary(ctx, req)
}

func (c *settlementServiceClient) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
	return c.recordSettlement.CallUnary(ctx, req)
}

func (c *settlementServiceClient) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

func (c *settlementServiceClient) DeleteSettlement(ctx context.Context, req *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error) {
	return c.deleteSettlement.CallUnary(ctx, req)
}
