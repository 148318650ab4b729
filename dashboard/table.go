package dashboard

import (
	"sync"
	"time"

	"coconut-supply/models"
)

// PageSize is the admin order table's fixed page length.
const PageSize = 10

// OrderTable filters and paginates the admin's last full order fetch. All
// work is local; nothing here calls the backend.
type OrderTable struct {
	mu   sync.Mutex
	loc  *time.Location
	all  []models.Order
	from *time.Time
	to   *time.Time
	page int

	filtered []models.Order
}

func NewOrderTable(loc *time.Location) *OrderTable {
	if loc == nil {
		loc = time.Local
	}
	return &OrderTable{loc: loc, page: 1}
}

// SetOrders replaces the data set. The current page is kept when it still
// exists.
func (t *OrderTable) SetOrders(orders []models.Order) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.all = append([]models.Order(nil), orders...)
	t.apply()
	t.goTo(t.page)
}

// SetRange sets the inclusive date filter. A nil bound is open. Either way
// the table returns to page 1.
func (t *OrderTable) SetRange(from, to *time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.from, t.to = dayStart(from, t.loc), dayEnd(to, t.loc)
	t.apply()
	t.page = 1
}

// ClearRange drops the date filter and returns to page 1.
func (t *OrderTable) ClearRange() {
	t.SetRange(nil, nil)
}

func (t *OrderTable) apply() {
	t.filtered = make([]models.Order, 0, len(t.all))
	for _, o := range t.all {
		created := o.CreatedAt.In(t.loc)
		if t.from != nil && created.Before(*t.from) {
			continue
		}
		if t.to != nil && created.After(*t.to) {
			continue
		}
		t.filtered = append(t.filtered, o)
	}
}

// Filtered returns a copy of every row passing the date filter.
func (t *OrderTable) Filtered() []models.Order {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.Order(nil), t.filtered...)
}

func (t *OrderTable) TotalPages() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalPages()
}

func (t *OrderTable) totalPages() int {
	return (len(t.filtered) + PageSize - 1) / PageSize
}

func (t *OrderTable) Page() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.page
}

// Rows returns a copy of the current page of the filtered set.
func (t *OrderTable) Rows() []models.Order {
	t.mu.Lock()
	defer t.mu.Unlock()
	start := (t.page - 1) * PageSize
	if start >= len(t.filtered) {
		return nil
	}
	end := min(start+PageSize, len(t.filtered))
	return append([]models.Order(nil), t.filtered[start:end]...)
}

func (t *OrderTable) HasPrev() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.page > 1
}

func (t *OrderTable) HasNext() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.page < t.totalPages()
}

// GoTo moves to page n, clamped to the available pages.
func (t *OrderTable) GoTo(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.goTo(n)
}

func (t *OrderTable) Next() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.goTo(t.page + 1)
}

func (t *OrderTable) Prev() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.goTo(t.page - 1)
}

func (t *OrderTable) goTo(n int) {
	t.page = clamp(n, 1, max(t.totalPages(), 1))
}

func dayStart(d *time.Time, loc *time.Location) *time.Time {
	if d == nil {
		return nil
	}
	y, m, day := d.In(loc).Date()
	v := time.Date(y, m, day, 0, 0, 0, 0, loc)
	return &v
}

func dayEnd(d *time.Time, loc *time.Location) *time.Time {
	if d == nil {
		return nil
	}
	y, m, day := d.In(loc).Date()
	v := time.Date(y, m, day, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
	return &v
}

func clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}
