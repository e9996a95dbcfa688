package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// ExpenseServiceName is the fully-qualified name of the ExpenseService service.
const ExpenseServiceName = "splitledger.v1.ExpenseService"

// Procedure paths, for use with connect.Request.Spec and interceptors.
const (
	ExpenseServiceCreateExpenseProcedure     = "/splitledger.v1.ExpenseService/CreateExpense"
	ExpenseServiceGetExpenseProcedure        = "/splitledger.v1.ExpenseService/GetExpense"
	ExpenseServiceUpdateExpenseProcedure     = "/splitledger.v1.ExpenseService/UpdateExpense"
	ExpenseServiceDeleteExpenseProcedure     = "/splitledger.v1.ExpenseService/DeleteExpense"
	ExpenseServiceListExpensesProcedure      = "/splitledger.v1.ExpenseService/ListExpenses"
	ExpenseServiceReconcileExpenseProcedure  = "/splitledger.v1.ExpenseService/ReconcileExpense"
	ExpenseServiceReconcileCategoryProcedure = "/splitledger.v1.ExpenseService/ReconcileCategory"
)

// ExpenseServiceHandler is the server side of ExpenseService.
// ExpenseService records expenses and reconciles their contributions.
type ExpenseServiceHandler interface {
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	ReconcileExpense(context.Context, *connect.Request[api.ReconcileExpenseRequest]) (*connect.Response[api.ReconcileExpenseResponse], error)
	ReconcileCategory(context.Context, *connect.Request[api.ReconcileCategoryRequest]) (*connect.Response[api.ReconcileCategoryResponse], error)
}

// NewExpenseServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	createExpenseHandler := connect.NewUnaryHandler(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts...)
	getExpenseHandler := connect.NewUnaryHandler(ExpenseServiceGetExpenseProcedure, svc.GetExpense, opts...)
	updateExpenseHandler := connect.NewUnaryHandler(ExpenseServiceUpdateExpenseProcedure, svc.UpdateExpense, opts...)
	deleteExpenseHandler := connect.NewUnaryHandler(ExpenseServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...)
	listExpensesHandler := connect.NewUnaryHandler(ExpenseServiceListExpensesProcedure, svc.ListExpenses, opts...)
	reconcileExpenseHandler := connect.NewUnaryHandler(ExpenseServiceReconcileExpenseProcedure, svc.ReconcileExpense, opts...)
	reconcileCategoryHandler := connect.NewUnaryHandler(ExpenseServiceReconcileCategoryProcedure, svc.ReconcileCategory, opts...)
	return "/splitledger.v1.ExpenseService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ExpenseServiceCreateExpenseProcedure:
			createExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceGetExpenseProcedure:
			getExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceUpdateExpenseProcedure:
			updateExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceDeleteExpenseProcedure:
			deleteExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceListExpensesProcedure:
			listExpensesHandler.ServeHTTP(w, r)
		case ExpenseServiceReconcileExpenseProcedure:
			reconcileExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceReconcileCategoryProcedure:
			reconcileCategoryHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// ExpenseServiceClient is a client for ExpenseService.
type ExpenseServiceClient interface {
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	ReconcileExpense(context.Context, *connect.Request[api.ReconcileExpenseRequest]) (*connect.Response[api.ReconcileExpenseResponse], error)
	ReconcileCategory(context.Context, *connect.Request[api.ReconcileCategoryRequest]) (*connect.Response[api.ReconcileCategoryResponse], error)
}

// NewExpenseServiceClient constructs a client for ExpenseService. baseURL is the server
// root, e.g. http://localhost:8080.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ExpenseServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &expenseServiceClient{
		createExpense: connect.NewClient[api.CreateExpenseRequest, api.CreateExpenseResponse](
			httpClient,
			baseURL+ExpenseServiceCreateExpenseProcedure,
			opts...,
		),
		getExpense: connect.NewClient[api.GetExpenseRequest, api.GetExpenseResponse](
			httpClient,
			baseURL+ExpenseServiceGetExpenseProcedure,
			opts...,
		),
		updateExpense: connect.NewClient[api.UpdateExpenseRequest, api.UpdateExpenseResponse](
			httpClient,
			baseURL+ExpenseServiceUpdateExpenseProcedure,
			opts...,
		),
		deleteExpense: connect.NewClient[api.DeleteExpenseRequest, api.DeleteExpenseResponse](
			httpClient,
			baseURL+ExpenseServiceDeleteExpenseProcedure,
			opts...,
		),
		listExpenses: connect.NewClient[api.ListExpensesRequest, api.ListExpensesResponse](
			httpClient,
			baseURL+ExpenseServiceListExpensesProcedure,
			opts...,
		),
		reconcileExpense: connect.NewClient[api.ReconcileExpenseRequest, api.ReconcileExpenseResponse](
			httpClient,
			baseURL+ExpenseServiceReconcileExpenseProcedure,
			opts...,
		),
		reconcileCategory: connect.NewClient[api.ReconcileCategoryRequest, api.ReconcileCategoryResponse](
			httpClient,
			baseURL+ExpenseServiceReconcileCategoryProcedure,
			opts...,
		),
	}
}

type expenseServiceClient struct {
	createExpense     *connect.Client[api.CreateExpenseRequest, api.CreateExpenseResponse]
	getExpense        *connect.Client[api.GetExpenseRequest, api.GetExpenseResponse]
	updateExpense     *connect.Client[api.UpdateExpenseRequest, api.UpdateExpenseResponse]
	deleteExpense     *connect.Client[api.DeleteExpenseRequest, api.DeleteExpenseResponse]
	listExpenses      *connect.Client[api.ListExpensesRequest, api.ListExpensesResponse]
	reconcileExpense  *connect.Client[api.ReconcileExpenseRequest, api.ReconcileExpenseResponse]
	reconcileCategory *connect.Client[api.ReconcileCategoryRequest, api.ReconcileCategoryResponse]
}

func (c *expenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *expenseServiceClient) ReconcileExpense(ctx context.Context, req *connect.Request[api.ReconcileExpenseRequest]) (*connect.Response[api.ReconcileExpenseResponse], error) {
	return c.reconcileExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) ReconcileCategory(ctx context.Context, req *connect.Request[api.ReconcileCategoryRequest]) (*connect.Response[api.ReconcileCategoryResponse], error) {
	return c.reconcileCategory.CallUnary(ctx, req)
}
