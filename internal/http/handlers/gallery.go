package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"nanogen/internal/domain"
)

// GalleryList returns a page of public items with pagination metadata.
func (a *App) GalleryList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := domain.GalleryListParams{
		Featured: q.Get("featured") == "true",
		Sort:     domain.NormalizeGallerySort(q.Get("sort")),
		Limit:    queryInt(r, "limit", 20),
		Offset:   queryInt(r, "skip", 0),
	}

	res, err := a.Gallery.List(r.Context(), params)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"gallery": res.Items,
		"pagination": map[string]any{
			"total":   res.Total,
			"limit":   params.Limit,
			"skip":    params.Offset,
			"hasMore": res.HasMore,
		},
		"filters": map[string]any{
			"featured": params.Featured,
			"sort":     string(params.Sort),
		},
	})
}

// GalleryShowcase returns the curated homepage set: featured first,
// backfilled by popularity.
func (a *App) GalleryShowcase(w http.ResponseWriter, r *http.Request) {
	items, err := a.Gallery.Showcase(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"showcase": items,
		"count":    len(items),
	})
}

// GallerySearch matches public items against title, description and prompt.
func (a *App) GallerySearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", 20)
	skip := queryInt(r, "skip", 0)

	res, err := a.Gallery.Search(r.Context(), query, limit, skip)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"results": res.Items,
		"query":   query,
		"pagination": map[string]any{
			"total":   res.Total,
			"limit":   limit,
			"skip":    skip,
			"hasMore": res.HasMore,
		},
	})
}

// GalleryGet returns one public item.
func (a *App) GalleryGet(w http.ResponseWriter, r *http.Request) {
	item, err := a.Gallery.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"galleryItem": item})
}

// GalleryLike increments an item's like counter and returns the new value.
func (a *App) GalleryLike(w http.ResponseWriter, r *http.Request) {
	likes, err := a.Gallery.Like(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"likes": likes})
}
