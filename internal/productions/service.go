package productions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/db"
	"github.com/setdecrunner/backend/pkg/db/models"
	"github.com/setdecrunner/backend/pkg/enums"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/slug"
)

type productionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Production, error)
	FindBySlug(ctx context.Context, slug string) (*models.Production, error)
	Create(ctx context.Context, production *models.Production) error
	Update(ctx context.Context, production *models.Production) error
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Production, error)
	ListMemberOf(ctx context.Context, userID uuid.UUID) ([]models.Production, error)
	UpsertMember(ctx context.Context, productionID, userID uuid.UUID, role enums.MemberRole) error
}

type membershipWriter interface {
	AddProductionID(ctx context.Context, userID, productionID uuid.UUID) error
}

// Service exposes production operations.
type Service interface {
	Create(ctx context.Context, creator *models.User, input CreateInput) (*ProductionDTO, error)
	GetBySlug(ctx context.Context, rawSlug string) (*PublicProductionDTO, error)
	ListMine(ctx context.Context, user *models.User) ([]ProductionDTO, error)
	Update(ctx context.Context, production *models.Production, input UpdateInput) (*ProductionDTO, error)
}

type service struct {
	repo  productionRepository
	users membershipWriter
}

// NewService builds the production service.
func NewService(repo productionRepository, users membershipWriter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("production repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("membership writer required")
	}
	return &service{repo: repo, users: users}, nil
}

// CreateInput captures creation-time production data.
type CreateInput struct {
	Title   string
	Slug    string
	Phone   string
	Address string
	Company string
}

// UpdateInput captures the fields members may patch. Ownership is never
// updatable through this path.
type UpdateInput struct {
	Title    *string
	Phone    *string
	Address  *string
	Company  *string
	IsActive *bool
}

func (s *service) Create(ctx context.Context, creator *models.User, input CreateInput) (*ProductionDTO, error) {
	if creator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}

	raw := input.Slug
	if raw == "" {
		raw = input.Title
	}
	normalized := slug.Normalize(raw)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	if slug.IsReserved(normalized) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is reserved").
			WithDetails(map[string]string{"slug": normalized})
	}

	existing, err := s.repo.FindBySlug(ctx, normalized)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use").
			WithDetails(map[string]string{"slug": normalized})
	}

	ownerID := creator.ID
	production := &models.Production{
		Title:       input.Title,
		Slug:        normalized,
		OwnerUserID: &ownerID,
		IsActive:    true,
		Phone:       input.Phone,
		Address:     input.Address,
		Company:     input.Company,
	}
	production.Members = production.Members.Add(creator.ID, enums.MemberRoleAdmin, time.Now().UTC())

	if err := s.repo.Create(ctx, production); err != nil {
		if db.IsUniqueViolation(err, "idx_productions_slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use").
				WithDetails(map[string]string{"slug": normalized})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create production")
	}

	// Record the membership on the user side as well.
	if err := s.users.AddProductionID(ctx, creator.ID, production.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record creator membership")
	}

	return FromModel(production), nil
}

func (s *service) GetBySlug(ctx context.Context, rawSlug string) (*PublicProductionDTO, error) {
	normalized := slug.Normalize(rawSlug)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	production, err := s.repo.FindBySlug(ctx, normalized)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load production")
	}
	if production == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "production not found")
	}
	return PublicFromModel(production), nil
}

// ListMine unions both membership records: productions referencing the user
// on their roster or owner columns, plus productions the user's own id list
// names. Either side alone is enough to appear in the result.
func (s *service) ListMine(ctx context.Context, user *models.User) ([]ProductionDTO, error) {
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}

	byRoster, err := s.repo.ListMemberOf(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list productions")
	}

	seen := make(map[uuid.UUID]struct{}, len(byRoster))
	merged := make([]models.Production, 0, len(byRoster))
	for _, p := range byRoster {
		seen[p.ID] = struct{}{}
		merged = append(merged, p)
	}

	var missing []uuid.UUID
	for _, id := range user.ProductionIDs {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		extra, err := s.repo.ListByIDs(ctx, missing)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list productions")
		}
		merged = append(merged, extra...)
	}

	out := make([]ProductionDTO, 0, len(merged))
	for i := range merged {
		out = append(out, *FromModel(&merged[i]))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, production *models.Production, input UpdateInput) (*ProductionDTO, error) {
	if production == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "production not found")
	}

	if input.Title != nil {
		production.Title = *input.Title
	}
	if input.Phone != nil {
		production.Phone = *input.Phone
	}
	if input.Address != nil {
		production.Address = *input.Address
	}
	if input.Company != nil {
		production.Company = *input.Company
	}
	if input.IsActive != nil {
		production.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, production); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save production")
	}
	return FromModel(production), nil
}
