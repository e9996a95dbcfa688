package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/reconcile"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

type testEnv struct {
	store      *sqlite.SQLiteStore
	auth       apiconnect.AuthServiceClient
	directory  apiconnect.DirectoryServiceClient
	expenses   apiconnect.ExpenseServiceClient
	settlement apiconnect.SettlementServiceClient
	token      string
}

// bearer returns a client interceptor that sends the given token.
func bearer(token *string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if *token != "" {
				req.Header().Set("Authorization", "Bearer "+*token)
			}
			return next(ctx, req)
		}
	}
}

// setupTestServer starts the full router on a temp SQLite database and
// registers a user whose token every client sends. opts configure the
// reconciler.
func setupTestServer(t *testing.T, opts ...reconcile.Option) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret-0123456789", time.Hour)
	currency := money.Currency{Code: "EUR", Places: 2}
	srv := NewServer(store, store, jwtManager, reconcile.New(append([]reconcile.Option{reconcile.WithCurrency(currency)}, opts...)...), currency)

	server := httptest.NewServer(srv.Handler())
	t.Cleanup(server.Close)

	env := &testEnv{store: store}
	clientOpts := connect.WithInterceptors(bearer(&env.token))
	env.auth = apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL, clientOpts)
	env.directory = apiconnect.NewDirectoryServiceClient(http.DefaultClient, server.URL, clientOpts)
	env.expenses = apiconnect.NewExpenseServiceClient(http.DefaultClient, server.URL, clientOpts)
	env.settlement = apiconnect.NewSettlementServiceClient(http.DefaultClient, server.URL, clientOpts)

	resp, err := env.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       "owner@example.com",
		DisplayName: "Owner",
		Password:    "correct horse",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	env.token = resp.Msg.Token
	return env
}

func (e *testEnv) participant(t *testing.T, name string) string {
	t.Helper()
	resp, err := e.directory.CreateParticipant(context.Background(), connect.NewRequest(&api.CreateParticipantRequest{Name: name}))
	if err != nil {
		t.Fatalf("CreateParticipant(%s) failed: %v", name, err)
	}
	return resp.Msg.Participant.ID
}

func (e *testEnv) category(t *testing.T, name string, defaults ...string) string {
	t.Helper()
	resp, err := e.directory.CreateCategory(context.Background(), connect.NewRequest(&api.CreateCategoryRequest{
		Name:                  name,
		DefaultParticipantIDs: defaults,
	}))
	if err != nil {
		t.Fatalf("CreateCategory(%s) failed: %v", name, err)
	}
	return resp.Msg.Category.ID
}

func (e *testEnv) expense(t *testing.T, in api.ExpenseInput) *api.Expense {
	t.Helper()
	resp, err := e.expenses.CreateExpense(context.Background(), connect.NewRequest(&api.CreateExpenseRequest{Expense: in}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	return resp.Msg.Expense
}

func wantCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", code)
	}
	if got := connect.CodeOf(err); got != code {
		t.Fatalf("code = %v, want %v (err: %v)", got, code, err)
	}
}

func TestAuthService(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	t.Run("GetCurrentUser", func(t *testing.T) {
		resp, err := env.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
		if err != nil {
			t.Fatalf("GetCurrentUser failed: %v", err)
		}
		if resp.Msg.User.Email != "owner@example.com" || resp.Msg.User.DisplayName != "Owner" {
			t.Errorf("user = %+v", resp.Msg.User)
		}
	})

	t.Run("Login", func(t *testing.T) {
		resp, err := env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "owner@example.com", Password: "correct horse"}))
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if resp.Msg.Token == "" || resp.Msg.ExpiresAt <= time.Now().Unix() {
			t.Errorf("login response = %+v", resp.Msg)
		}
	})

	t.Run("Login wrong password", func(t *testing.T) {
		_, err := env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "owner@example.com", Password: "wrong password"}))
		wantCode(t, err, connect.CodeUnauthenticated)
	})

	t.Run("Register duplicate", func(t *testing.T) {
		_, err := env.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{Email: "owner@example.com", Password: "another password"}))
		wantCode(t, err, connect.CodeAlreadyExists)
	})
}

func TestProtectedServicesRequireToken(t *testing.T) {
	env := setupTestServer(t)
	env.token = ""

	_, err := env.directory.ListParticipants(context.Background(), connect.NewRequest(&api.ListParticipantsRequest{}))
	wantCode(t, err, connect.CodeUnauthenticated)
}

func TestDirectoryService(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	alice := env.participant(t, "Alice")
	bob := env.participant(t, "Bob")

	t.Run("empty name", func(t *testing.T) {
		_, err := env.directory.CreateParticipant(ctx, connect.NewRequest(&api.CreateParticipantRequest{Name: "  "}))
		wantCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("category defaults are deduplicated", func(t *testing.T) {
		id := env.category(t, "Home", bob, alice, bob)
		resp, err := env.directory.GetCategory(ctx, connect.NewRequest(&api.GetCategoryRequest{CategoryID: id}))
		if err != nil {
			t.Fatalf("GetCategory failed: %v", err)
		}
		got := resp.Msg.Category.DefaultParticipantIDs
		if len(got) != 2 || got[0] != bob || got[1] != alice {
			t.Errorf("DefaultParticipantIDs = %v, want [%s %s]", got, bob, alice)
		}
	})

	t.Run("unknown default participant", func(t *testing.T) {
		_, err := env.directory.CreateCategory(ctx, connect.NewRequest(&api.CreateCategoryRequest{
			Name:                  "Trip",
			DefaultParticipantIDs: []string{alice, "ghost"},
		}))
		wantCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("missing category", func(t *testing.T) {
		_, err := env.directory.GetCategory(ctx, connect.NewRequest(&api.GetCategoryRequest{CategoryID: "missing"}))
		wantCode(t, err, connect.CodeNotFound)
	})

	t.Run("SetCategoryParticipants", func(t *testing.T) {
		id := env.category(t, "Office")
		resp, err := env.directory.SetCategoryParticipants(ctx, connect.NewRequest(&api.SetCategoryParticipantsRequest{
			CategoryID:            id,
			DefaultParticipantIDs: []string{alice},
		}))
		if err != nil {
			t.Fatalf("SetCategoryParticipants failed: %v", err)
		}
		if got := resp.Msg.Category.DefaultParticipantIDs; len(got) != 1 || got[0] != alice {
			t.Errorf("DefaultParticipantIDs = %v", got)
		}
	})

	t.Run("ListParticipants", func(t *testing.T) {
		resp, err := env.directory.ListParticipants(ctx, connect.NewRequest(&api.ListParticipantsRequest{}))
		if err != nil {
			t.Fatalf("ListParticipants failed: %v", err)
		}
		if len(resp.Msg.Participants) != 2 || resp.Msg.Participants[0].Name != "Alice" {
			t.Errorf("participants = %+v", resp.Msg.Participants)
		}
	})
}
