// Package loops finds the fork/merge bubbles of a commit history.
//
// # Overview
//
// Every merge on the main line closes a loop: its second parent starts a
// branch that, followed by first parents, leads back to the main line at the
// fork point. The loop consists of two sides:
//
//   - The fork path: the branch commits, from the merged-in parent down to the
//     fork point (exclusive)
//   - The main path: the trunk commits strictly between merge and fork point
//
// A renderer draws the two sides as a bubble leaving the trunk at the fork
// point and rejoining it at the merge.
//
// # Annotated Path
//
// [Loop.Path] lists every commit topologically between merge and fork point,
// newest first, bracketed by the merge anchor and the fork anchor (both at
// level 0). Commits on neither side belong to a nested loop and push the level
// up; the level decides how far right a commit sits inside the bubble.
//
// Level bookkeeping starts at 1. On the main path a commit with several
// children opens a nested branch and increments the level, and a merge closes
// one and decrements it (never below 1). A commit that does both keeps its
// level.
//
// # Partial Loops
//
// Histories are loaded page by page, so the merged-in branch may not be
// loaded down to its fork point yet. Such loops are marked [Loop.Partial]:
// the fork point is empty, the main path holds the rest of the main line, and
// the annotated path has no closing anchor. A merged-in parent that is not
// loaded at all yields a partial loop holding only the merge anchor.
//
// # Colors
//
// Each loop gets one color from a [ColorGenerator]. [RandomColors] is seeded,
// so a given history always gets the same colors; [Palette] cycles through a
// fixed list.
//
// # Failure Handling
//
// Walks are bounded by the number of commits in the graph and track the
// commits they visit. A corrupt history that would make a walk revisit a
// commit abandons only the affected loop, which is reported in
// [Result.Skipped] with a coded error from the errors package.
package loops
