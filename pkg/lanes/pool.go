package lanes

import "slices"

// freeColumn is a released column and the display row of its last use.
type freeColumn struct {
	col   int
	since int
}

// columnPool hands out the lowest free column, else the next column above
// the high-water mark. Column 0 belongs to the trunk and is never pooled.
type columnPool struct {
	free []freeColumn // sorted by col
	max  int          // highest column handed out so far
}

// take returns a column that is unused at every row from the current one
// down to row below. A fork edge is drawn in the child's column from the
// parent's row, so below is the row of the parent the new lane leaves from.
// A column freed at row below qualifies: the old lane ends at that commit
// and the new one starts there.
func (p *columnPool) take(below int) int {
	for i, f := range p.free {
		if f.since >= below {
			p.free = slices.Delete(p.free, i, i+1)
			return f.col
		}
	}
	p.max++
	return p.max
}

// release returns c to the pool. row is the display row of its last use.
func (p *columnPool) release(c, row int) {
	if c == 0 {
		return
	}
	i, found := slices.BinarySearchFunc(p.free, c, func(f freeColumn, c int) int { return f.col - c })
	if found {
		p.free[i].since = min(p.free[i].since, row)
		return
	}
	p.free = slices.Insert(p.free, i, freeColumn{col: c, since: row})
}
