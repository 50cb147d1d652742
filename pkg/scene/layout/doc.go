// Package layout computes where each arriving item sits in the timeline.
//
// An [Engine] maps one item to a [Placement]: a stable origin and an edge
// length. Placement is incremental. Items already instanced are never moved;
// a new item is positioned from its own fields, a per-pass [Index] of the
// live item set, and a read view of the instances placed so far.
//
// # Axes
//
// X is time. An item sits at
//
//	(timestamp - minTimestamp) * Spacing + LeadingOffset
//
// where minTimestamp is fixed for the life of a session, so new items always
// enter to the right of everything already placed and scroll toward the
// viewer. Y separates the chain levels with a fixed baseline per type.
// Z is 0 for blocks in the default mode; workshares fan out in Z by their
// timestamp rank among siblings sharing a parent, and in multi-chain mode
// every chain gets its own Z lane.
//
// # Forks
//
// Items of the same type sharing a height but carrying different hashes are
// forks. They are spread along X by their rank in the lexicographic order of
// the distinct hashes at that height, so the spread is stable across passes
// even when older items drop out of the live set.
//
// # Overlap
//
// After the raw position is computed, [Engine.Place] scans same-type
// instances whose Y is within half a size of the candidate and pushes the
// candidate along X away from each one that is too close. The resolver is
// first-fit: a placed instance is never revisited.
//
// # Fallbacks
//
// Items with an unusable timestamp, and in-flight workshares whose parent has
// no instance yet, get a seeded pseudo-random off-screen position. The
// placement records which fallback was taken; it is never corrected later.
package layout
