package blog

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Tags is the shared-label store. Tags are not owned by anyone; there is no
// update or delete path.
type Tags interface {
	List(ctx context.Context) ([]*Tag, error)
	Create(ctx context.Context, record *Tag) (*Tag, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Tag) (*Tag, error)
	ExistTx(ctx context.Context, tx bun.IDB, ids []uuid.UUID) (bool, error)
}

type tags struct {
	repository.Repository[*Tag]
	db *bun.DB
}

var _ Tags = (*tags)(nil)

// NewTagsRepository builds the bun-backed tag store
func NewTagsRepository(db *bun.DB) Tags {
	repo := repository.NewRepository[*Tag](db, repository.ModelHandlers[*Tag]{
		NewRecord: func() *Tag { return &Tag{} },
		GetID: func(t *Tag) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Tag, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &tags{
		Repository: repo,
		db:         db,
	}
}

func (a *tags) List(ctx context.Context) ([]*Tag, error) {
	var records []*Tag
	err := a.db.NewSelect().Model(&records).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *tags) Create(ctx context.Context, record *Tag) (*Tag, error) {
	return a.CreateTx(ctx, a.db, record)
}

// CreateTx stores the tag with its marker prefix applied exactly once.
func (a *tags) CreateTx(ctx context.Context, tx bun.IDB, record *Tag) (*Tag, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Name = NormalizeTagName(record.Name)

	return a.Repository.CreateTx(ctx, tx, record)
}

// ExistTx reports whether every given tag id is present.
func (a *tags) ExistTx(ctx context.Context, tx bun.IDB, ids []uuid.UUID) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}

	count, err := tx.NewSelect().Model((*Tag)(nil)).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Count(ctx)
	if err != nil {
		return false, err
	}

	return count == len(ids), nil
}
