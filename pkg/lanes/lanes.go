package lanes

import (
	"maps"
	"slices"

	"github.com/matzehuels/forkline/pkg/dag"
)

// Position is the grid cell of one commit.
type Position struct {
	Column int `json:"column" bson:"column"`
	Row    int `json:"row" bson:"row"`
}

// Assignment maps every commit to its grid cell.
type Assignment struct {
	Positions map[string]Position
	// Rows lists shas by display row: Rows[0] is the newest commit.
	Rows []string
	// Columns is the number of columns in use, trunk included.
	Columns int
}

// Position returns the cell of sha.
func (a Assignment) Position(sha string) (Position, bool) {
	p, ok := a.Positions[sha]
	return p, ok
}

// Assign places every commit of order on the grid.
//
// order must be the ancestors-first topological order of g. Rows are display
// rows, newest first, so the commit at order[len(order)-1] gets row 0.
// Commits on mainLine are pinned to column 0; no other commit ever uses it.
// Columns of finished branches are recycled, so the number of columns equals
// the peak number of branches open at the same time.
func Assign(g *dag.Graph, mainLine, order []string) Assignment {
	a := Assignment{
		Positions: make(map[string]Position, len(order)),
		Rows:      make([]string, len(order)),
	}
	if len(order) == 0 {
		return a
	}

	onMain := make(map[string]bool, len(mainLine))
	for _, sha := range mainLine {
		onMain[sha] = true
	}

	s := &state{
		g:         g,
		col:       make(map[string]int, len(order)),
		row:       make(map[string]int, len(order)),
		head:      make(map[int]string),
		unvisited: make(map[string]int, len(order)),
		waiting:   make(map[int]string),
	}
	for _, sha := range order {
		s.unvisited[sha] = len(g.Children(sha))
	}

	for k, sha := range order {
		row := len(order) - 1 - k
		c := 0
		if !onMain[sha] {
			c = s.column(sha, row)
		}
		s.col[sha] = c
		s.row[sha] = row
		s.head[c] = sha
		s.visit(sha, c)

		a.Positions[sha] = Position{Column: c, Row: row}
		a.Rows[row] = sha

		s.flush(row)
	}

	a.Columns = s.pool.max + 1
	return a
}

type state struct {
	g    *dag.Graph
	pool columnPool

	col       map[string]int // assigned column per visited sha
	row       map[string]int // display row per visited sha
	head      map[int]string // column -> most recent commit placed in it
	unvisited map[string]int // sha -> children not visited yet
	waiting   map[int]string // column -> head awaiting release
}

// column picks the column of a commit that is not on the main line and is
// displayed at row.
func (s *state) column(sha string, row int) int {
	parents := s.placedParents(sha)

	switch {
	case len(parents) == 1:
		p := parents[0]
		c := s.col[p]
		if c != 0 && s.head[c] == p && !s.g.IsFork(p) {
			return c
		}
	case len(parents) > 1:
		best := -1
		for _, p := range parents {
			c := s.col[p]
			if c == 0 || s.head[c] != p {
				continue
			}
			if best == -1 || c < best {
				best = c
			}
		}
		if best != -1 {
			return best
		}
	}

	// A new lane must stay clear down to the oldest parent it is drawn from.
	below := row
	for _, p := range parents {
		below = max(below, s.row[p])
	}
	return s.pool.take(below)
}

// placedParents returns the distinct loaded parents that already have a
// column. Parents reached through a cycle are not placed yet.
func (s *state) placedParents(sha string) []string {
	var out []string
	for _, p := range s.g.ResolvedParents(sha) {
		if _, ok := s.col[p]; ok && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// visit updates child counters after sha was placed in column c and
// schedules the columns it ends.
func (s *state) visit(sha string, c int) {
	for _, p := range s.placedParents(sha) {
		s.unvisited[p]--
		pc := s.col[p]
		if pc != 0 && pc != c && s.head[pc] == p {
			s.waiting[pc] = p
		}
	}
	if c != 0 && len(s.g.Children(sha)) == 0 {
		s.waiting[c] = sha
	}
}

// flush returns waiting columns to the pool once their head commit has no
// children left to place. It runs after each row, so a column is never
// reused by the commit that ended it.
func (s *state) flush(row int) {
	for _, c := range slices.Sorted(maps.Keys(s.waiting)) {
		sha := s.waiting[c]
		if s.head[c] != sha {
			delete(s.waiting, c)
			continue
		}
		if s.unvisited[sha] > 0 {
			continue
		}
		delete(s.waiting, c)
		delete(s.head, c)
		s.pool.release(c, row)
	}
}
