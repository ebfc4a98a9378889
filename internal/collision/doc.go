// Package collision resolves overlaps between circular particles.
//
// The broad phase buckets particles with [grid.Grid] and only pairs each
// occupied cell with itself and its forward neighbours, so every pair that
// can touch is tested once per pass without a seen-pairs set. The narrow
// phase is [Solver.SolvePair]:
//
//   - equal split positional correction along the contact normal
//   - a restitution-scaled impulse when the pair is still approaching
//   - a fixed nudge along x for coincident centres
//
// Pairs are relaxed one after another (Gauss-Seidel), so the order of the
// pass is part of the result. Ascending cell order and ascending particle
// order inside each cell make a pass deterministic.
package collision
