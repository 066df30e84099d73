package services

import (
	"context"
	"fmt"

	"github.com/Aldiyar97/quiz-league/models"
	"github.com/Aldiyar97/quiz-league/repositories"
)

// DefaultLadder is the fixed four-tier ladder seeded by the admin bootstrap.
// Order 1 is the top tier. Totals below Bronze's floor are unclassified
// ("Non classé") and rank 0 in user-facing views.
var DefaultLadder = []models.Division{
	{Name: "Saphir", MinPoints: 1000, MaxPoints: nil, Color: "#0F52BA", Order: 1, PromotionThreshold: 5, RelegationThreshold: 5},
	{Name: "Or", MinPoints: 500, MaxPoints: intPtr(999), Color: "#FFD700", Order: 2, PromotionThreshold: 5, RelegationThreshold: 5},
	{Name: "Argent", MinPoints: 150, MaxPoints: intPtr(499), Color: "#C0C0C0", Order: 3, PromotionThreshold: 5, RelegationThreshold: 5},
	{Name: "Bronze", MinPoints: 10, MaxPoints: intPtr(149), Color: "#CD7F32", Order: 4, PromotionThreshold: 5, RelegationThreshold: 5},
}

func intPtr(v int) *int { return &v }

// Classify returns the division whose range contains the given point total,
// scanning in ladder order, or nil when no tier matches. Callers must treat
// nil as "Non classé", not as an error.
func Classify(divisions []models.Division, points int) *models.Division {
	if points < 0 {
		return nil
	}
	for i := range divisions {
		if divisions[i].ContainsPoints(points) {
			return &divisions[i]
		}
	}
	return nil
}

type DivisionService interface {
	List(ctx context.Context) ([]models.Division, error)
	GetByID(ctx context.Context, id int) (*models.Division, error)
	// Seed applies the default ladder idempotently, upserting each tier by
	// name. There is no window with an empty ladder.
	Seed(ctx context.Context) ([]models.Division, error)
	ClassifyPoints(ctx context.Context, points int) (*models.Division, error)
}

type divisionService struct {
	divisionRepo repositories.DivisionRepository
}

func NewDivisionService(divisionRepo repositories.DivisionRepository) DivisionService {
	return &divisionService{divisionRepo: divisionRepo}
}

func (s *divisionService) List(ctx context.Context) ([]models.Division, error) {
	return s.divisionRepo.List(ctx)
}

func (s *divisionService) GetByID(ctx context.Context, id int) (*models.Division, error) {
	division, err := s.divisionRepo.GetByID(ctx, id)
	if err != nil {
		if err == repositories.ErrDivisionNotFound {
			return nil, ErrDivisionNotFound
		}
		return nil, err
	}
	return division, nil
}

func (s *divisionService) Seed(ctx context.Context) ([]models.Division, error) {
	seeded := make([]models.Division, 0, len(DefaultLadder))
	for _, tier := range DefaultLadder {
		division := tier
		if err := s.divisionRepo.UpsertByName(ctx, &division); err != nil {
			return nil, fmt.Errorf("failed to seed division %q: %w", division.Name, err)
		}
		seeded = append(seeded, division)
	}
	return seeded, nil
}

func (s *divisionService) ClassifyPoints(ctx context.Context, points int) (*models.Division, error) {
	divisions, err := s.divisionRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(divisions) == 0 {
		return nil, ErrLadderNotConfigured
	}
	return Classify(divisions, points), nil
}
