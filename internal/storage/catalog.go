package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/drstein77/storefront/internal/models"
)

// FetchProducts loads one page of the catalog under the current filter.
// Page 0 replaces the accumulated listing wholesale (refresh), higher pages
// append, skipping ids already present. The check-and-claim of the in-flight
// flag happens atomically under the lock, so overlapping calls get
// ErrFetchInFlight and cause no second network call; the load already running
// completes normally.
func (s *MemoryStorage) FetchProducts(ctx context.Context, page int) error {
	if page < 0 {
		return ErrBadPage
	}

	s.mx.Lock()
	if s.loading {
		s.mx.Unlock()
		return ErrFetchInFlight
	}
	if page > 0 && len(s.products) >= s.total {
		s.mx.Unlock()
		return ErrNoMorePages
	}
	s.loading = true
	s.lastErr = ""
	filter := s.filter
	limit := s.limit
	s.mx.Unlock()

	return s.doFetch(ctx, filter, page, limit)
}

// doFetch performs the network call and applies the result. The caller must
// have claimed the in-flight flag.
func (s *MemoryStorage) doFetch(ctx context.Context, filter models.Filter, page, limit int) error {
	data, err := s.fetchPage(ctx, filter, page, limit)

	s.mx.Lock()
	defer s.mx.Unlock()
	s.loading = false

	if err != nil {
		// previously loaded state stays intact
		s.lastErr = err.Error()
		s.log.Error("catalog page load failed", zap.Int("page", page), zap.Error(err))
		return err
	}

	if page == 0 {
		s.products = s.products[:0]
		s.seen = make(map[int]struct{}, len(data.Products))
	}
	for _, p := range data.Products {
		if _, dup := s.seen[p.ID]; dup {
			continue
		}
		s.seen[p.ID] = struct{}{}
		s.products = append(s.products, p)
	}
	s.page = page
	s.total = data.Total

	s.log.Debug("catalog page loaded",
		zap.Int("page", page),
		zap.Int("loaded", len(s.products)),
		zap.Int("total", s.total))
	return nil
}

func (s *MemoryStorage) fetchPage(ctx context.Context, f models.Filter, page, limit int) (*models.ProductPage, error) {
	switch {
	case f.Query != "":
		return s.client.SearchProducts(ctx, f.Query, page, limit)
	case f.CategoryURL != "":
		return s.client.ListByCategory(ctx, f.CategoryURL, page, limit)
	default:
		return s.client.ListProducts(ctx, page, limit)
	}
}

// SetFilter replaces the catalog filter and reloads page 0. A load already in
// flight rejects the whole call, filter commit included, so a snapshot never
// shows a filter whose products were not fetched; the caller may retry once
// the in-flight load finishes.
func (s *MemoryStorage) SetFilter(ctx context.Context, f models.Filter) error {
	s.mx.Lock()
	if s.loading {
		s.mx.Unlock()
		return ErrFetchInFlight
	}
	s.loading = true
	s.lastErr = ""
	s.filter = f
	limit := s.limit
	s.mx.Unlock()

	return s.doFetch(ctx, f, 0, limit)
}

// SearchDebounced schedules a filtered reload for the query. Each call rearms
// the timer, so a burst of keystrokes collapses into one request once input
// has been quiet for the debounce interval.
func (s *MemoryStorage) SearchDebounced(query string) {
	s.searchMx.Lock()
	defer s.searchMx.Unlock()

	if s.searchTimer != nil {
		s.searchTimer.Stop()
	}
	s.searchTimer = time.AfterFunc(s.debounce, func() {
		if err := s.SetFilter(s.ctx, models.Filter{Query: query}); err != nil {
			s.log.Info("debounced search dropped", zap.String("query", query), zap.Error(err))
		}
	})
}

// FetchCategories replaces the category list wholesale. On failure the
// previous list stays intact.
func (s *MemoryStorage) FetchCategories(ctx context.Context) error {
	categories, err := s.client.ListCategories(ctx)
	if err != nil {
		s.mx.Lock()
		s.lastErr = err.Error()
		s.mx.Unlock()
		s.log.Error("category load failed", zap.Error(err))
		return err
	}

	s.mx.Lock()
	s.categories = categories
	s.lastErr = ""
	s.mx.Unlock()
	return nil
}

// FetchProduct returns one product, serving it from the accumulated listing
// when possible and falling back to the remote catalog.
func (s *MemoryStorage) FetchProduct(ctx context.Context, id int) (*models.Product, error) {
	s.mx.RLock()
	for i := range s.products {
		if s.products[i].ID == id {
			p := s.products[i]
			p.Images = append([]string(nil), p.Images...)
			s.mx.RUnlock()
			return &p, nil
		}
	}
	s.mx.RUnlock()

	return s.client.GetProduct(ctx, id)
}
