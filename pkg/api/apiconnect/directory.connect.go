package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// DirectoryServiceName is the fully-qualified name of the DirectoryService service.
const DirectoryServiceName = "splitledger.v1.DirectoryService"

// Procedure paths, for use with connect.Request.Spec and interceptors.
const (
	DirectoryServiceCreateParticipantProcedure       = "/splitledger.v1.DirectoryService/CreateParticipant"
	DirectoryServiceListParticipantsProcedure        = "/splitledger.v1.DirectoryService/ListParticipants"
	DirectoryServiceDeleteParticipantProcedure       = "/splitledger.v1.DirectoryService/DeleteParticipant"
	DirectoryServiceCreateCategoryProcedure          = "/splitledger.v1.DirectoryService/CreateCategory"
	DirectoryServiceGetCategoryProcedure             = "/splitledger.v1.DirectoryService/GetCategory"
	DirectoryServiceListCategoriesProcedure          = "/splitledger.v1.DirectoryService/ListCategories"
	DirectoryServiceSetCategoryParticipantsProcedure = "/splitledger.v1.DirectoryService/SetCategoryParticipants"
)

// DirectoryServiceHandler is the server side of DirectoryService.
// DirectoryService manages participants and categories.
type DirectoryServiceHandler interface {
	CreateParticipant(context.Context, *connect.Request[api.CreateParticipantRequest]) (*connect.Response[api.CreateParticipantResponse], error)
	ListParticipants(context.Context, *connect.Request[api.ListParticipantsRequest]) (*connect.Response[api.ListParticipantsResponse], error)
	DeleteParticipant(context.Context, *connect.Request[api.DeleteParticipantRequest]) (*connect.Response[api.DeleteParticipantResponse], error)
	CreateCategory(context.Context, *connect.Request[api.CreateCategoryRequest]) (*connect.Response[api.CreateCategoryResponse], error)
	GetCategory(context.Context, *connect.Request[api.GetCategoryRequest]) (*connect.Response[api.GetCategoryResponse], error)
	ListCategories(context.Context, *connect.Request[api.ListCategoriesRequest]) (*connect.Response[api.ListCategoriesResponse], error)
	SetCategoryParticipants(context.Context, *connect.Request[api.SetCategoryParticipantsRequest]) (*connect.Response[api.SetCategoryParticipantsResponse], error)
}

// NewDirectoryServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewDirectoryServiceHandler(svc DirectoryServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	createParticipantHandler := connect.NewUnaryHandler(DirectoryServiceCreateParticipantProcedure, svc.CreateParticipant, opts...)
	listParticipantsHandler := connect.NewUnaryHandler(DirectoryServiceListParticipantsProcedure, svc.ListParticipants, opts...)
	deleteParticipantHandler := connect.NewUnaryHandler(DirectoryServiceDeleteParticipantProcedure, svc.DeleteParticipant, opts...)
	createCategoryHandler := connect.NewUnaryHandler(DirectoryServiceCreateCategoryProcedure, svc.CreateCategory, opts...)
	getCategoryHandler := connect.NewUnaryHandler(DirectoryServiceGetCategoryProcedure, svc.GetCategory, opts...)
	listCategoriesHandler := connect.NewUnaryHandler(DirectoryServiceListCategoriesProcedure, svc.ListCategories, opts...)
	setCategoryParticipantsHandler := connect.NewUnaryHandler(DirectoryServiceSetCategoryParticipantsProcedure, svc.SetCategoryParticipants, opts...)
	return "/splitledger.v1.DirectoryService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case DirectoryServiceCreateParticipantProcedure:
			createParticipantHandler.ServeHTTP(w, r)
		case DirectoryServiceListParticipantsProcedure:
			listParticipantsHandler.ServeHTTP(w, r)
		case DirectoryServiceDeleteParticipantProcedure:
			deleteParticipantHandler.ServeHTTP(w, r)
		case DirectoryServiceCreateCategoryProcedure:
			createCategoryHandler.ServeHTTP(w, r)
		case DirectoryServiceGetCategoryProcedure:
			getCategoryHandler.ServeHTTP(w, r)
		case DirectoryServiceListCategoriesProcedure:
			listCategoriesHandler.ServeHTTP(w, r)
		case DirectoryServiceSetCategoryParticipantsProcedure:
			setCategoryParticipantsHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// DirectoryServiceClient is a client for DirectoryService.
type DirectoryServiceClient interface {
	CreateParticipant(context.Context, *connect.Request[api.CreateParticipantRequest]) (*connect.Response[api.CreateParticipantResponse], error)
	ListParticipants(context.Context, *connect.Request[api.ListParticipantsRequest]) (*connect.Response[api.ListParticipantsResponse], error)
	DeleteParticipant(context.Context, *connect.Request[api.DeleteParticipantRequest]) (*connect.Response[api.DeleteParticipantResponse], error)
	CreateCategory(context.Context, *connect.Request[api.CreateCategoryRequest]) (*connect.Response[api.CreateCategoryResponse], error)
	GetCategory(context.Context, *connect.Request[api.GetCategoryRequest]) (*connect.Response[api.GetCategoryResponse], error)
	ListCategories(context.Context, *connect.Request[api.ListCategoriesRequest]) (*connect.Response[api.ListCategoriesResponse], error)
	SetCategoryParticipants(context.Context, *connect.Request[api.SetCategoryParticipantsRequest]) (*connect.Response[api.SetCategoryParticipantsResponse], error)
}

// NewDirectoryServiceClient constructs a client for DirectoryService. baseURL is the server
// root, e.g. http://localhost:8080.
func NewDirectoryServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) DirectoryServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &directoryServiceClient{
		createParticipant: connect.NewClient[api.CreateParticipantRequest, api.CreateParticipantResponse](
			httpClient,
			baseURL+DirectoryServiceCreateParticipantProcedure,
			opts...,
		),
		listParticipants: connect.NewClient[api.ListParticipantsRequest, api.ListParticipantsResponse](
			httpClient,
			baseURL+DirectoryServiceListParticipantsProcedure,
			opts...,
		),
		deleteParticipant: connect.NewClient[api.DeleteParticipantRequest, api.DeleteParticipantResponse](
			httpClient,
			baseURL+DirectoryServiceDeleteParticipantProcedure,
			opts...,
		),
		createCategory: connect.NewClient[api.CreateCategoryRequest, api.CreateCategoryResponse](
			httpClient,
			baseURL+DirectoryServiceCreateCategoryProcedure,
			opts...,
		),
		getCategory: connect.NewClient[api.GetCategoryRequest, api.GetCategoryResponse](
			httpClient,
			baseURL+DirectoryServiceGetCategoryProcedure,
			opts...,
		),
		listCategories: connect.NewClient[api.ListCategoriesRequest, api.ListCategoriesResponse](
			httpClient,
			baseURL+DirectoryServiceListCategoriesProcedure,
			opts...,
		),
		setCategoryParticipants: connect.NewClient[api.SetCategoryParticipantsRequest, api.SetCategoryParticipantsResponse](
			httpClient,
			baseURL+DirectoryServiceSetCategoryParticipantsProcedure,
			opts...,
		),
	}
}

type directoryServiceClient struct {
	createParticipant       *connect.Client[api.CreateParticipantRequest, api.CreateParticipantResponse]
	listParticipants        *connect.Client[api.ListParticipantsRequest, api.ListParticipantsResponse]
	deleteParticipant       *connect.Client[api.DeleteParticipantRequest, api.DeleteParticipantResponse]
	createCategory          *connect.Client[api.CreateCategoryRequest, api.CreateCategoryResponse]
	getCategory             *connect.Client[api.GetCategoryRequest, api.GetCategoryResponse]
	listCategories          *connect.Client[api.ListCategoriesRequest, api.ListCategoriesResponse]
	setCategoryParticipants *connect.Client[api.SetCategoryParticipantsRequest, api.SetCategoryParticipantsResponse]
}

func (c *directoryServiceClient) CreateParticipant(ctx context.Context, req *connect.Request[api.CreateParticipantRequest]) (*connect.Response[api.CreateParticipantResponse], error) {
	return c.createParticipant.CallUnary(ctx, req)
}

func (c *directoryServiceClient) ListParticipants(ctx context.Context, req *connect.Request[api.ListParticipantsRequest]) (*connect.Response[api.ListParticipantsResponse], error) {
	return c.listParticipants.CallUnary(ctx, req)
}

func (c *directoryServiceClient) DeleteParticipant(ctx context.Context, req *connect.Request[api.DeleteParticipantRequest]) (*connect.Response[api.DeleteParticipantResponse], error) {
	return c.deleteParticipant.CallUnary(ctx, req)
}

func (c *directoryServiceClient) CreateCategory(ctx context.Context, req *connect.Request[api.CreateCategoryRequest]) (*connect.Response[api.CreateCategoryResponse], error) {
	return c.createCategory.CallUnary(ctx, req)
}

func (c *directoryServiceClient) GetCategory(ctx context.Context, req *connect.Request[api.GetCategoryRequest]) (*connect.Response[api.GetCategoryResponse], error) {
	return c.getCategory.CallUnary(ctx, req)
}

func (c *directoryServiceClient) ListCategories(ctx context.Context, req *connect.Request[api.ListCategoriesRequest]) (*connect.Response[api.ListCategoriesResponse], error) {
	return c.listCategories.CallUnary(ctx, req)
}

func (c *directoryServiceClient) SetCategoryParticipants(ctx context.Context, req *connect.Request[api.SetCategoryParticipantsRequest]) (*connect.Response[api.SetCategoryParticipantsResponse], error) {
	return c.setCategoryParticipants.CallUnary(ctx, req)
}
