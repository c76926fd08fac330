package repository

import (
	"context"
	"strings"

	"github.com/noah-isme/olympiad-api/internal/docstore"
	"github.com/noah-isme/olympiad-api/internal/models"
)

// CoordinatorRepository persists coordinator accounts and their incentive fields.
type CoordinatorRepository interface {
	Get(ctx context.Context, id string) (models.Coordinator, error)
	Create(ctx context.Context, coordinator models.Coordinator) error
	CreateBatch(ctx context.Context, coordinators []models.Coordinator) error
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	FindByEmail(ctx context.Context, email string) (models.Coordinator, error)
	List(ctx context.Context) ([]models.Coordinator, error)
	ListByStatus(ctx context.Context, status string) ([]models.Coordinator, error)
	Achievements(ctx context.Context, id string) ([]models.Achievement, error)
}

type coordinatorRepository struct {
	coordinators collection[models.Coordinator]
}

// NewCoordinatorRepository constructs a coordinator repository over the document store.
func NewCoordinatorRepository(store docstore.Gateway) CoordinatorRepository {
	return &coordinatorRepository{coordinators: collection[models.Coordinator]{store: store, name: CoordinatorsCollection}}
}

func (r *coordinatorRepository) Get(ctx context.Context, id string) (models.Coordinator, error) {
	return r.coordinators.get(ctx, id)
}

func (r *coordinatorRepository) Create(ctx context.Context, coordinator models.Coordinator) error {
	return r.coordinators.put(ctx, coordinator.UserID, coordinator)
}

func (r *coordinatorRepository) CreateBatch(ctx context.Context, coordinators []models.Coordinator) error {
	if len(coordinators) == 0 {
		return nil
	}
	batch := make(map[string]models.Coordinator, len(coordinators))
	for _, coordinator := range coordinators {
		batch[coordinator.UserID] = coordinator
	}
	return r.coordinators.putMany(ctx, batch)
}

func (r *coordinatorRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	return r.coordinators.update(ctx, id, fields)
}

func (r *coordinatorRepository) Delete(ctx context.Context, id string) error {
	return r.coordinators.remove(ctx, id)
}

func (r *coordinatorRepository) FindByEmail(ctx context.Context, email string) (models.Coordinator, error) {
	return r.coordinators.first(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *coordinatorRepository) List(ctx context.Context) ([]models.Coordinator, error) {
	return r.coordinators.list(ctx)
}

func (r *coordinatorRepository) ListByStatus(ctx context.Context, status string) ([]models.Coordinator, error) {
	return r.coordinators.find(ctx, "status", status)
}

func (r *coordinatorRepository) Achievements(ctx context.Context, id string) ([]models.Achievement, error) {
	snap, err := r.coordinators.store.Get(ctx, r.coordinators.path(id, "achievements"))
	if err != nil {
		return nil, err
	}
	children, err := snap.Children()
	if err != nil {
		return nil, err
	}
	achievements := make([]models.Achievement, 0, len(children))
	for _, child := range children {
		var achievement models.Achievement
		if err := child.Decode(&achievement); err != nil {
			return nil, err
		}
		achievement.ID = child.Key()
		achievements = append(achievements, achievement)
	}
	return achievements, nil
}
