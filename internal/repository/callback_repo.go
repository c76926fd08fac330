package repository

import (
	"context"

	"github.com/noah-isme/olympiad-api/internal/docstore"
	"github.com/noah-isme/olympiad-api/internal/models"
)

// CallbackRepository persists callback requests submitted from the public site.
type CallbackRepository interface {
	Create(ctx context.Context, request models.CallbackRequest) (string, error)
	List(ctx context.Context) ([]models.CallbackRequest, error)
}

type callbackRepository struct {
	callbacks collection[models.CallbackRequest]
}

// NewCallbackRepository constructs a callback repository over the document store.
func NewCallbackRepository(store docstore.Gateway) CallbackRepository {
	return &callbackRepository{callbacks: collection[models.CallbackRequest]{store: store, name: CallbacksCollection}}
}

func (r *callbackRepository) Create(ctx context.Context, request models.CallbackRequest) (string, error) {
	request.ID = ""
	return r.callbacks.store.Push(ctx, r.callbacks.name, request)
}

func (r *callbackRepository) List(ctx context.Context) ([]models.CallbackRequest, error) {
	snap, err := r.callbacks.store.Get(ctx, r.callbacks.name)
	if err != nil {
		return nil, err
	}
	children, err := snap.Children()
	if err != nil {
		return nil, err
	}
	requests := make([]models.CallbackRequest, 0, len(children))
	for _, child := range children {
		var request models.CallbackRequest
		if err := child.Decode(&request); err != nil {
			return nil, err
		}
		request.ID = child.Key()
		requests = append(requests, request)
	}
	return requests, nil
}
