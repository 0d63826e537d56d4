package session

import (
	"sync"

	"github.com/matsen/tablebot/internal/render"
	"github.com/matsen/tablebot/internal/table"
)

// PageSize is the number of rows shown per page.
const PageSize = 20

// Pager walks a fixed snapshot of a table one page at a time.
// It starts on page 1 and moves only within [1, TotalPages].
type Pager struct {
	title string
	snap  table.Table

	mu     sync.Mutex
	page   int
	total  int
	closed bool
}

// NewPager snapshots t for display under title. Later changes to the table
// are not reflected.
func NewPager(title string, t table.Table) *Pager {
	snap := t.Clone()
	total := (len(snap.Rows) + PageSize - 1) / PageSize
	if total < 1 {
		total = 1
	}
	return &Pager{
		title: title,
		snap:  snap,
		page:  1,
		total: total,
	}
}

// Title returns the table name the pager displays.
func (p *Pager) Title() string {
	return p.title
}

// Page returns the current 1-indexed page.
func (p *Pager) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// TotalPages returns max(1, ceil(rows/PageSize)).
func (p *Pager) TotalPages() int {
	return p.total
}

// Interactive reports whether navigation affordances are needed.
func (p *Pager) Interactive() bool {
	return p.total > 1
}

// Next advances one page. It returns false, changing nothing, on the last
// page or once closed.
func (p *Pager) Next() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.page >= p.total {
		return false
	}
	p.page++
	return true
}

// Previous goes back one page. It returns false, changing nothing, on the
// first page or once closed.
func (p *Pager) Previous() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.page <= 1 {
		return false
	}
	p.page--
	return true
}

// Close stops the pager. Further navigation is a no-op.
// It returns false if the pager was already closed.
func (p *Pager) Close() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.closed = true
	return true
}

// Closed reports whether the pager has stopped.
func (p *Pager) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Rows returns the rows of the current page: [(page-1)*PageSize, page*PageSize).
func (p *Pager) Rows() [][]string {
	p.mu.Lock()
	page := p.page
	p.mu.Unlock()
	return p.rowsFor(page)
}

func (p *Pager) rowsFor(page int) [][]string {
	start := (page - 1) * PageSize
	end := start + PageSize
	if start > len(p.snap.Rows) {
		start = len(p.snap.Rows)
	}
	if end > len(p.snap.Rows) {
		end = len(p.snap.Rows)
	}
	return p.snap.Rows[start:end]
}

// Render formats the current page. It fails with render.ErrTooWide when the
// page cannot fit in one message.
func (p *Pager) Render() (string, error) {
	p.mu.Lock()
	page := p.page
	p.mu.Unlock()
	return render.Page(p.title, page, p.total, p.snap.Columns, p.rowsFor(page))
}
