// Package embed computes spectral embeddings from graph Laplacians.
//
// # Overview
//
// The low-order eigenvectors of a Laplacian place strongly connected vertices
// close together. An [Embedder] validates a [laplacian.Matrix], asks a
// [Solver] for its k eigenpairs of smallest magnitude and returns them as an
// [Embedding]: eigenvalues ascending, one column per eigenvector, one row per
// vertex.
//
// # Solvers
//
// The eigen-decomposition itself is an injected dependency. [GonumSolver]
// runs gonum's dense symmetric eigensolver on the aggregated matrix; tests
// substitute stubs that return known eigenpairs.
//
// Selecting the smallest-magnitude pairs of a Laplacian is the classic
// formulation (its spectrum starts at 0). It is numerically less robust than
// asking for the smallest algebraic pairs when an iterative solver is used;
// [SmallestAlgebraic] is available for that case.
//
// # Signs and Degenerate Spectra
//
// Eigenvectors are only defined up to sign. With CanonicalSign set (the
// default from [New]), every column is flipped so its largest-magnitude
// component is positive, which makes reruns on identical input reproduce
// identical coordinates. This does not help for repeated eigenvalues: any
// rotation of a basis of the eigenspace is equally valid, and which one the
// solver returns is implementation-dependent. [Embedding.Degenerate] reports
// such columns so callers can warn about them.
//
// # The Trivial Eigenvector
//
// For a connected graph the smallest eigenvalue is 0 and its eigenvector is
// constant. [Embedding.Axes] can skip it when choosing the two columns to
// draw.
package embed
