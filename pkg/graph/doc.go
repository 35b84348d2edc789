// Package graph ingests raw edge lists into a dense vertex space.
//
// Edge lists identify vertices by arbitrary non-negative integers that may
// have gaps ("1 7", "7 1000000"). Spectral layout works on matrices indexed
// 0..n-1, so ingestion assigns every identifier a dense index in order of
// first appearance and records how many edge occurrences touch each vertex.
//
// # Core Types
//
//   - [Remap]: bijection between observed identifiers and dense indices
//   - [Edge]: a pair of dense indices
//   - [Graph]: dense edges, the degree table and the remap
//
// # Input Format
//
// One edge per line, two whitespace-separated integers:
//
//	1 2
//	2 7
//
//	7 1
//
// Blank lines and lines starting with '%' or '#' are skipped. Anything else
// that is not exactly two non-negative integers fails the whole read with a
// PARSE_ERROR naming the line.
//
// Edges are kept exactly as read: duplicate lines stay duplicated and
// self-loops pass through. Callers that need a simple graph must clean the
// input first.
//
// # Connectivity
//
// [Components] and [Summarize] describe the graph's connected components.
// A Laplacian has one zero eigenvalue per component, so a disconnected
// input produces embedding axes that merely separate components.
package graph
