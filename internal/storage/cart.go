package storage

import (
	"go.uber.org/zap"

	"github.com/drstein77/storefront/internal/models"
)

// AddToCart inserts a fresh line for the product or bumps the quantity of an
// existing one. Cart mutations cannot fail; the keeper write happens in the
// background and never blocks or rolls back the in-memory change.
func (s *MemoryStorage) AddToCart(p models.Product) {
	s.mx.Lock()
	if line, ok := s.cart[p.ID]; ok {
		line.Quantity++
	} else {
		s.cart[p.ID] = &models.CartLine{Product: p, Quantity: 1, AddedAt: s.now()}
		s.order = append(s.order, p.ID)
	}
	s.cartVer++
	ver := s.cartVer
	lines := s.cartLinesLocked()
	s.mx.Unlock()

	s.persist(lines, ver)
}

// ReduceQuantity lowers a line's quantity by one, flooring at 1. It never
// removes the line and is a no-op for an absent id.
func (s *MemoryStorage) ReduceQuantity(id int) {
	s.mx.Lock()
	line, ok := s.cart[id]
	if !ok {
		s.mx.Unlock()
		return
	}
	if line.Quantity > 1 {
		line.Quantity--
	}
	s.cartVer++
	ver := s.cartVer
	lines := s.cartLinesLocked()
	s.mx.Unlock()

	s.persist(lines, ver)
}

// RemoveFromCart deletes the line unconditionally. No-op for an absent id.
func (s *MemoryStorage) RemoveFromCart(id int) {
	s.mx.Lock()
	if _, ok := s.cart[id]; !ok {
		s.mx.Unlock()
		return
	}
	delete(s.cart, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.cartVer++
	ver := s.cartVer
	lines := s.cartLinesLocked()
	s.mx.Unlock()

	s.persist(lines, ver)
}

// ClearCart empties the ledger.
func (s *MemoryStorage) ClearCart() {
	s.mx.Lock()
	s.cart = make(map[int]*models.CartLine)
	s.order = s.order[:0]
	s.cartVer++
	ver := s.cartVer
	s.mx.Unlock()

	s.persist([]models.CartLine{}, ver)
}

// CartView returns the lines in insertion order together with the derived
// totals. Gross sums price*quantity; net applies each line's discount first.
// No rounding happens here.
func (s *MemoryStorage) CartView() models.CartView {
	s.mx.RLock()
	lines := s.cartLinesLocked()
	s.mx.RUnlock()

	var gross, net float64
	for _, ln := range lines {
		q := float64(ln.Quantity)
		gross += ln.Price * q
		net += (ln.Price - ln.Price*ln.DiscountPercentage/100) * q
	}
	return models.CartView{Lines: lines, Gross: gross, Net: net}
}

// cartLinesLocked copies the ledger in insertion order, including each
// line's Images slice so callers never alias live state. Callers must hold mx.
func (s *MemoryStorage) cartLinesLocked() []models.CartLine {
	lines := make([]models.CartLine, 0, len(s.order))
	for _, id := range s.order {
		ln := *s.cart[id]
		ln.Images = append([]string(nil), ln.Images...)
		lines = append(lines, ln)
	}
	return lines
}

// persist mirrors the ledger to the keeper, fire-and-forget. A failed write
// is logged and the in-memory cart stays authoritative. The version check
// keeps a slow older write from clobbering a newer one.
func (s *MemoryStorage) persist(lines []models.CartLine, ver uint64) {
	if s.keeper == nil {
		return
	}
	go func() {
		s.saveMx.Lock()
		defer s.saveMx.Unlock()
		if ver <= s.savedVer {
			return
		}
		s.savedVer = ver
		if err := s.keeper.SaveCart(s.ctx, lines); err != nil {
			s.log.Error("cannot persist cart", zap.Error(err))
		}
	}()
}
