package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

var _ apiconnect.DirectoryServiceHandler = (*DirectoryService)(nil)

// DirectoryService implements the Connect DirectoryService.
type DirectoryService struct {
	store storage.Store
}

// NewDirectoryService creates a new DirectoryService with the given storage backend.
func NewDirectoryService(store storage.Store) *DirectoryService {
	return &DirectoryService{store: store}
}

// CreateParticipant adds a person who can pay for and share expenses.
func (s *DirectoryService) CreateParticipant(ctx context.Context, req *connect.Request[api.CreateParticipantRequest]) (*connect.Response[api.CreateParticipantResponse], error) {
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("participant name required")
	}

	p := &models.Participant{Name: name, Color: req.Msg.Color}
	if err := s.store.CreateParticipant(ctx, p); err != nil {
		return nil, toConnectError("CreateParticipant", err)
	}

	slog.Info("Participant created", "participant_id", p.ID, "name", p.Name)
	return connect.NewResponse(&api.CreateParticipantResponse{Participant: toAPIParticipant(p)}), nil
}

// ListParticipants returns every participant ordered by name.
func (s *DirectoryService) ListParticipants(ctx context.Context, req *connect.Request[api.ListParticipantsRequest]) (*connect.Response[api.ListParticipantsResponse], error) {
	participants, err := s.store.ListParticipants(ctx)
	if err != nil {
		return nil, toConnectError("ListParticipants", err)
	}

	out := make([]*api.Participant, len(participants))
	for i := range participants {
		out[i] = toAPIParticipant(&participants[i])
	}
	return connect.NewResponse(&api.ListParticipantsResponse{Participants: out}), nil
}

// DeleteParticipant removes a participant from the directory. Records that
// still reference the participant keep the ID and are reported as unknown
// during balance calculation.
func (s *DirectoryService) DeleteParticipant(ctx context.Context, req *connect.Request[api.DeleteParticipantRequest]) (*connect.Response[api.DeleteParticipantResponse], error) {
	if req.Msg.ParticipantID == "" {
		return nil, invalidArgument("participant_id required")
	}
	if err := s.store.DeleteParticipant(ctx, req.Msg.ParticipantID); err != nil {
		return nil, toConnectError("DeleteParticipant", err)
	}
	return connect.NewResponse(&api.DeleteParticipantResponse{}), nil
}

// CreateCategory adds a category with its default participant set.
func (s *DirectoryService) CreateCategory(ctx context.Context, req *connect.Request[api.CreateCategoryRequest]) (*connect.Response[api.CreateCategoryResponse], error) {
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("category name required")
	}

	defaults, err := s.resolveParticipants(ctx, req.Msg.DefaultParticipantIDs)
	if err != nil {
		return nil, err
	}

	c := &models.Category{Name: name, DefaultParticipants: defaults}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, toConnectError("CreateCategory", err)
	}

	slog.Info("Category created", "category_id", c.ID, "name", c.Name, "default_participants", len(defaults))
	return connect.NewResponse(&api.CreateCategoryResponse{Category: toAPICategory(c)}), nil
}

// GetCategory retrieves a category by ID.
func (s *DirectoryService) GetCategory(ctx context.Context, req *connect.Request[api.GetCategoryRequest]) (*connect.Response[api.GetCategoryResponse], error) {
	if req.Msg.CategoryID == "" {
		return nil, invalidArgument("category_id required")
	}
	c, err := s.store.GetCategory(ctx, req.Msg.CategoryID)
	if err != nil {
		return nil, toConnectError("GetCategory", err)
	}
	return connect.NewResponse(&api.GetCategoryResponse{Category: toAPICategory(c)}), nil
}

// ListCategories returns every category ordered by name.
func (s *DirectoryService) ListCategories(ctx context.Context, req *connect.Request[api.ListCategoriesRequest]) (*connect.Response[api.ListCategoriesResponse], error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, toConnectError("ListCategories", err)
	}
	out := make([]*api.Category, len(categories))
	for i, c := range categories {
		out[i] = toAPICategory(c)
	}
	return connect.NewResponse(&api.ListCategoriesResponse{Categories: out}), nil
}

// SetCategoryParticipants replaces a category's default participant set.
func (s *DirectoryService) SetCategoryParticipants(ctx context.Context, req *connect.Request[api.SetCategoryParticipantsRequest]) (*connect.Response[api.SetCategoryParticipantsResponse], error) {
	if req.Msg.CategoryID == "" {
		return nil, invalidArgument("category_id required")
	}
	defaults, err := s.resolveParticipants(ctx, req.Msg.DefaultParticipantIDs)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetCategoryParticipants(ctx, req.Msg.CategoryID, defaults); err != nil {
		return nil, toConnectError("SetCategoryParticipants", err)
	}

	c, err := s.store.GetCategory(ctx, req.Msg.CategoryID)
	if err != nil {
		return nil, toConnectError("SetCategoryParticipants", err)
	}
	return connect.NewResponse(&api.SetCategoryParticipantsResponse{Category: toAPICategory(c)}), nil
}

// resolveParticipants dedupes ids and checks that each one exists.
func (s *DirectoryService) resolveParticipants(ctx context.Context, ids []string) ([]string, error) {
	scratch := &models.ExpenseRecord{}
	ledger.SetParticipants(scratch, ids)
	if len(scratch.Participants) == 0 {
		return nil, nil
	}

	registry, err := loadRegistry(ctx, s.store)
	if err != nil {
		return nil, toConnectError("loadRegistry", err)
	}
	if err := checkKnown(registry, scratch.Participants); err != nil {
		return nil, err
	}
	return scratch.Participants, nil
}

func loadRegistry(ctx context.Context, store storage.Store) (calculator.MapRegistry, error) {
	participants, err := store.ListParticipants(ctx)
	if err != nil {
		return nil, err
	}
	return calculator.NewRegistry(participants), nil
}

func checkKnown(registry calculator.Registry, ids []string) error {
	for _, id := range ids {
		if _, err := registry.Lookup(id); err != nil {
			return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %s", err, id))
		}
	}
	return nil
}
