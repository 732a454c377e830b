// Package pager tracks the reader's position in the open document.
package pager

import "sync"

// Pager holds a zero-based current page and the document's page count.
// A count of zero means the count is unknown and only the lower bound
// applies. Safe for concurrent use.
type Pager struct {
	mu      sync.Mutex
	current int
	count   int
}

// New returns a pager on the first page of a document with count pages.
func New(count int) *Pager {
	return &Pager{count: max(count, 0)}
}

// Next moves forward one page. It reports the resulting page and whether
// the position changed; on the last page it stays put.
func (p *Pager) Next() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.moveTo(p.current + 1)
}

// Previous moves back one page, stopping at the first page.
func (p *Pager) Previous() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.moveTo(p.current - 1)
}

// Go jumps to page, clamped to the document.
func (p *Pager) Go(page int) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.moveTo(page)
}

// SetPageCount sets the document length and pulls the current page back
// inside it. Negative counts are treated as unknown.
func (p *Pager) SetPageCount(count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count = max(count, 0)
	p.current = p.clamp(p.current)
}

// Current returns the current page.
func (p *Pager) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Count returns the page count, zero when unknown.
func (p *Pager) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Snapshot returns the current page and count together.
func (p *Pager) Snapshot() (current, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.count
}

func (p *Pager) moveTo(page int) (int, bool) {
	page = p.clamp(page)
	moved := page != p.current
	p.current = page
	return page, moved
}

func (p *Pager) clamp(page int) int {
	if p.count > 0 {
		page = min(page, p.count-1)
	}
	return max(page, 0)
}
