package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/drstein77/storefront/internal/models"
)

var (
	// ErrFetchInFlight is returned when a catalog load is already running.
	// At most one catalog fetch may be in flight at a time.
	ErrFetchInFlight = errors.New("catalog fetch already in flight")
	// ErrNoMorePages is returned when the accumulated product list already
	// covers the server-reported total.
	ErrNoMorePages = errors.New("no more catalog pages")
	// ErrBadPage is returned for a negative page number.
	ErrBadPage = errors.New("page must not be negative")
)

// Log interface for logging
type Log interface {
	Debug(string, ...zap.Field)
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// Catalog is the remote product API the storage reads from.
type Catalog interface {
	ListProducts(ctx context.Context, page, limit int) (*models.ProductPage, error)
	ListByCategory(ctx context.Context, categoryURL string, page, limit int) (*models.ProductPage, error)
	SearchProducts(ctx context.Context, query string, page, limit int) (*models.ProductPage, error)
	GetProduct(ctx context.Context, id int) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// Keeper interface for cart persistence operations. Only the cart is ever
// persisted; catalog state is refetched at process start.
type Keeper interface {
	LoadCart(context.Context) ([]models.CartLine, error)
	SaveCart(context.Context, []models.CartLine) error
	Ping(context.Context) bool
	Close() bool
}

// MemoryStorage is the single process-wide state container: the accumulated
// catalog listing with its pagination cursor, the category list and the cart
// ledger. All state transitions happen under mx; the in-memory cart is
// authoritative, the keeper only mirrors it.
type MemoryStorage struct {
	ctx context.Context
	mx  sync.RWMutex

	page       int
	limit      int
	total      int
	products   []models.Product
	seen       map[int]struct{}
	categories []models.Category
	filter     models.Filter
	loading    bool
	lastErr    string

	cart    map[int]*models.CartLine
	order   []int
	cartVer uint64

	saveMx   sync.Mutex
	savedVer uint64

	searchMx    sync.Mutex
	searchTimer *time.Timer
	debounce    time.Duration

	client Catalog
	keeper Keeper
	log    Log
	now    func() int64
}

// NewMemoryStorage creates a MemoryStorage and seeds the cart ledger from the
// keeper. A missing or unreadable persisted cart yields an empty ledger,
// never an error.
func NewMemoryStorage(ctx context.Context, client Catalog, keeper Keeper, limit int, debounce time.Duration, log Log) *MemoryStorage {
	s := &MemoryStorage{
		ctx:      ctx,
		limit:    limit,
		seen:     make(map[int]struct{}),
		cart:     make(map[int]*models.CartLine),
		debounce: debounce,
		client:   client,
		keeper:   keeper,
		log:      log,
		now:      func() int64 { return time.Now().UnixMilli() },
	}

	if keeper != nil {
		lines, err := keeper.LoadCart(ctx)
		if err != nil {
			log.Info("cannot load cart data", zap.Error(err))
		}
		for i := range lines {
			ln := lines[i]
			if ln.Quantity < 1 {
				ln.Quantity = 1
			}
			if _, ok := s.cart[ln.ID]; ok {
				continue
			}
			s.cart[ln.ID] = &ln
			s.order = append(s.order, ln.ID)
		}
	}

	return s
}

// Snapshot returns a deep copy of the current state. Observers may hold on to
// it; no later mutation shows through.
func (s *MemoryStorage) Snapshot() models.State {
	s.mx.RLock()
	defer s.mx.RUnlock()

	return models.State{
		Page:       s.page,
		Limit:      s.limit,
		Total:      s.total,
		Products:   copyProducts(s.products),
		Categories: append([]models.Category(nil), s.categories...),
		Cart:       s.cartLinesLocked(),
		Filter:     s.filter,
		Loading:    s.loading,
		Error:      s.lastErr,
	}
}

// Ping reports whether the keeper is reachable.
func (s *MemoryStorage) Ping(ctx context.Context) bool {
	if s.keeper == nil {
		return false
	}
	return s.keeper.Ping(ctx)
}

func copyProducts(in []models.Product) []models.Product {
	out := make([]models.Product, len(in))
	for i, p := range in {
		p.Images = append([]string(nil), p.Images...)
		out[i] = p
	}
	return out
}
