package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ledger/internal/cache"
	"ledger/internal/core"
)

const (
	categoryCacheSize = 256
	categoryCacheTTL  = 10 * time.Minute
)

// CategoryResolver returns the category for a title, creating it on first
// use. Titles match case-sensitively and exactly. Resolved categories are
// cached; category rows are never mutated, so stale reads cannot occur.
type CategoryResolver struct {
	store CategoryStore
	cache *cache.LRU[core.Category]
}

func NewCategoryResolver(store CategoryStore) *CategoryResolver {
	return &CategoryResolver{
		store: store,
		cache: cache.NewLRU[core.Category](categoryCacheSize, categoryCacheTTL),
	}
}

// Resolve looks up an existing category by exact title; when absent it
// persists a new one and returns it. Store errors propagate unchanged.
func (r *CategoryResolver) Resolve(ctx context.Context, title string) (core.Category, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return core.Category{}, core.ErrEmptyCategoryTitle
	}

	if cached, ok := r.cache.Get(title); ok {
		return cached, nil
	}

	existing, err := r.store.FindCategoryByTitle(ctx, title)
	if err != nil {
		return core.Category{}, err
	}
	if existing != nil {
		r.cache.Set(title, *existing)
		return *existing, nil
	}

	category := core.Category{
		ID:        core.NewID(),
		Title:     title,
		CreatedAt: time.Now(),
	}
	if err := r.store.CreateCategory(ctx, category); err != nil {
		return core.Category{}, fmt.Errorf("create category %q: %w", title, err)
	}
	r.cache.Set(title, category)

	slog.InfoContext(ctx, "Category created",
		"category_id", category.ID,
		"category", category.Title)

	return category, nil
}
