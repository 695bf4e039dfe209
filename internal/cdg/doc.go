// Package cdg computes structural coherence over a claim dependency graph.
//
// Every function here is pure: it reads the claim and edge slices it is
// given, never mutates them, keeps no state between calls and performs no
// I/O. Edges whose source or target is not in the claim set are invalid and
// are ignored by stratification and metrics. FindOrphans is the exception:
// it treats any edge endpoint as a connection, valid or not.
package cdg
