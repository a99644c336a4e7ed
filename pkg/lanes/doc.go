// Package lanes places commits on a grid of rows and columns.
//
// # Overview
//
// Each commit gets its own display row, newest first. Columns separate
// branches: the main line runs straight down column 0, and every branch that
// leaves it gets a column of its own for as long as it is open.
//
// # Rules
//
// Commits are visited ancestors first. For a commit off the main line:
//
//   - One parent that is not a fork point and still heads its column: the
//     commit continues that column
//   - One parent that is a fork point: a new branch starts and takes a fresh
//     column
//   - Several parents (a merge): the lowest column among parents that still
//     head their column; the other parents' columns end here
//
// Column 0 is never handed to a commit off the main line.
//
// # Recycling
//
// A column is returned to the pool once the commit heading it has had all of
// its children placed, and only after the current row. A fork edge is drawn
// in the child's column from the parent's row, so a recycled column is only
// reused when it has been free since above that row. With these rules the
// number of columns follows the number of branches open at the same time, not
// the total number of branches ever created.
package lanes
