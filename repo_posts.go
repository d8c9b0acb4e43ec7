package blog

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Posts is the owned-content store
type Posts interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Post, error)
	List(ctx context.Context) ([]*Post, error)
	Create(ctx context.Context, record *Post, tagIDs []uuid.UUID) (*Post, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Post, tagIDs []uuid.UUID) (*Post, error)
	Update(ctx context.Context, record *Post, tagIDs []uuid.UUID) (*Post, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *Post, tagIDs []uuid.UUID) (*Post, error)
}

type posts struct {
	repository.Repository[*Post]
	db *bun.DB
}

var _ Posts = (*posts)(nil)

// NewPostsRepository builds the bun-backed post store
func NewPostsRepository(db *bun.DB) Posts {
	repo := repository.NewRepository[*Post](db, repository.ModelHandlers[*Post]{
		NewRecord: func() *Post { return &Post{} },
		GetID: func(p *Post) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Post, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &posts{
		Repository: repo,
		db:         db,
	}
}

func (a *posts) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	return a.GetByIDTx(ctx, a.db, id)
}

func (a *posts) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Post, error) {
	record := &Post{}
	err := tx.NewSelect().Model(record).
		Relation("Author").
		Relation("Tags").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}
	return record, nil
}

func (a *posts) List(ctx context.Context) ([]*Post, error) {
	var records []*Post
	err := a.db.NewSelect().Model(&records).
		Relation("Author").
		Relation("Tags").
		Order("published_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *posts) Create(ctx context.Context, record *Post, tagIDs []uuid.UUID) (*Post, error) {
	return a.CreateTx(ctx, a.db, record, tagIDs)
}

func (a *posts) CreateTx(ctx context.Context, tx bun.IDB, record *Post, tagIDs []uuid.UUID) (*Post, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		return nil, err
	}

	if err := a.replaceTagsTx(ctx, tx, created.ID, tagIDs, false); err != nil {
		return nil, err
	}

	return created, nil
}

func (a *posts) Update(ctx context.Context, record *Post, tagIDs []uuid.UUID) (*Post, error) {
	return a.UpdateTx(ctx, a.db, record, tagIDs)
}

// UpdateTx persists title and body changes and, when tagIDs is non-nil,
// replaces the tag set. AuthorID and PublishedAt are never touched here.
func (a *posts) UpdateTx(ctx context.Context, tx bun.IDB, record *Post, tagIDs []uuid.UUID) (*Post, error) {
	updated, err := a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(record.ID.String()))
	if err != nil {
		return nil, err
	}

	if tagIDs != nil {
		if err := a.replaceTagsTx(ctx, tx, record.ID, tagIDs, true); err != nil {
			return nil, err
		}
	}

	return updated, nil
}

func (a *posts) replaceTagsTx(ctx context.Context, tx bun.IDB, postID uuid.UUID, tagIDs []uuid.UUID, clear bool) error {
	if clear {
		if _, err := tx.NewDelete().Model((*PostTag)(nil)).
			Where("post_id = ?", postID).
			Exec(ctx); err != nil {
			return err
		}
	}

	if len(tagIDs) == 0 {
		return nil
	}

	links := make([]*PostTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		links = append(links, &PostTag{PostID: postID, TagID: tagID})
	}

	_, err := tx.NewInsert().Model(&links).Exec(ctx)
	return err
}
