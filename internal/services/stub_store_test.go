package services

import (
	"context"

	"github.com/photogallery/server/internal/models"
	"github.com/photogallery/server/internal/repository"
)

// stubStore serves fixed documents, or fails every call with err.
// With block set, calls wait for the context to end.
type stubStore struct {
	photos      []*models.Photo
	collections []*models.Collection
	categories  []*models.Category
	err         error
	block       bool
	calls       []string
}

func (s *stubStore) Photos() repository.PhotoRepo           { return &stubPhotoRepo{s} }
func (s *stubStore) Collections() repository.CollectionRepo { return &stubCollectionRepo{s} }
func (s *stubStore) Categories() repository.CategoryRepo    { return &stubCategoryRepo{s} }
func (s *stubStore) Driver() string                         { return "stub" }
func (s *stubStore) Close() error                           { return nil }

func (s *stubStore) Ping(ctx context.Context) error {
	return s.wait(ctx, "Ping")
}

func (s *stubStore) wait(ctx context.Context, call string) error {
	s.calls = append(s.calls, call)
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.err
}

func clonePhotos(in []*models.Photo, keep func(*models.Photo) bool) []*models.Photo {
	out := []*models.Photo{}
	for _, p := range in {
		if keep == nil || keep(p) {
			c := *p
			out = append(out, &c)
		}
	}
	return out
}

type stubPhotoRepo struct{ s *stubStore }

func (r *stubPhotoRepo) GetAll(ctx context.Context) ([]*models.Photo, error) {
	if err := r.s.wait(ctx, "photos.GetAll"); err != nil {
		return nil, err
	}
	return clonePhotos(r.s.photos, nil), nil
}

func (r *stubPhotoRepo) GetBySlug(ctx context.Context, slug string) (*models.Photo, error) {
	if err := r.s.wait(ctx, "photos.GetBySlug"); err != nil {
		return nil, err
	}
	found := clonePhotos(r.s.photos, func(p *models.Photo) bool { return p.Slug == slug })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *stubPhotoRepo) inCollection(id string) func(*models.Photo) bool {
	return func(p *models.Photo) bool {
		for _, c := range p.CollectionIDs {
			if c == id {
				return true
			}
		}
		return false
	}
}

func (r *stubPhotoRepo) GetByCollectionID(ctx context.Context, collectionID string) ([]*models.Photo, error) {
	if err := r.s.wait(ctx, "photos.GetByCollectionID"); err != nil {
		return nil, err
	}
	return clonePhotos(r.s.photos, r.inCollection(collectionID)), nil
}

func (r *stubPhotoRepo) GetByCategoryID(ctx context.Context, categoryID string) ([]*models.Photo, error) {
	if err := r.s.wait(ctx, "photos.GetByCategoryID"); err != nil {
		return nil, err
	}
	return clonePhotos(r.s.photos, func(p *models.Photo) bool {
		for _, c := range p.CategoryIDs {
			if c == categoryID {
				return true
			}
		}
		return false
	}), nil
}

func (r *stubPhotoRepo) GetForCollectionAdmin(ctx context.Context, collectionID string) ([]*models.Photo, error) {
	if err := r.s.wait(ctx, "photos.GetForCollectionAdmin"); err != nil {
		return nil, err
	}
	return clonePhotos(r.s.photos, r.inCollection(collectionID)), nil
}

type stubCollectionRepo struct{ s *stubStore }

func (r *stubCollectionRepo) GetAll(ctx context.Context) ([]*models.Collection, error) {
	if err := r.s.wait(ctx, "collections.GetAll"); err != nil {
		return nil, err
	}
	out := []*models.Collection{}
	for _, c := range r.s.collections {
		cc := *c
		out = append(out, &cc)
	}
	return out, nil
}

func (r *stubCollectionRepo) GetBySlug(ctx context.Context, slug string) (*models.Collection, error) {
	if err := r.s.wait(ctx, "collections.GetBySlug"); err != nil {
		return nil, err
	}
	for _, c := range r.s.collections {
		if c.Slug == slug {
			cc := *c
			return &cc, nil
		}
	}
	return nil, nil
}

type stubCategoryRepo struct{ s *stubStore }

func (r *stubCategoryRepo) GetAll(ctx context.Context) ([]*models.Category, error) {
	if err := r.s.wait(ctx, "categories.GetAll"); err != nil {
		return nil, err
	}
	out := []*models.Category{}
	for _, c := range r.s.categories {
		cc := *c
		out = append(out, &cc)
	}
	return out, nil
}

func (r *stubCategoryRepo) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	if err := r.s.wait(ctx, "categories.GetBySlug"); err != nil {
		return nil, err
	}
	for _, c := range r.s.categories {
		if c.Slug == slug {
			cc := *c
			return &cc, nil
		}
	}
	return nil, nil
}
