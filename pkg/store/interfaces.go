package store

import (
	"context"

	"biotimeline/pkg/model"
)

// ReferenceStore handles gold-standard reference persistence.
type ReferenceStore interface {
	SaveReference(ctx context.Context, ref *model.Reference) error
	GetReference(ctx context.Context, id string) (*model.Reference, error)
	FindReference(ctx context.Context, name string, loc model.Locale) (*model.Reference, error)
	ListReferences(ctx context.Context) ([]*model.Reference, error)
	DeleteReference(ctx context.Context, id string) error
	DeleteReferencesBySource(ctx context.Context, source string) (int64, error)
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}
