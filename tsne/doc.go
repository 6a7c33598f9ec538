// Package tsne projects high-dimensional vectors into a low-dimensional space
// with exact t-distributed stochastic neighbor embedding.
//
// The pipeline runs in four stages:
//
//  1. Calibration: a per-point binary search finds the Gaussian bandwidth whose
//     conditional neighbor distribution reaches the target perplexity.
//  2. Affinities: pairwise squared distances are converted into conditional
//     probabilities and symmetrized into the joint matrix P.
//  3. Kernel: every iteration the current embedding Y is turned into the joint
//     matrix Q using a Student-t kernel with one degree of freedom.
//  4. Optimization: momentum gradient descent moves Y to minimize KL(P||Q).
//
// # Usage
//
//	coords, err := tsne.Transform(ctx, vectors, 2,
//	    tsne.WithPerplexity(5),
//	    tsne.WithIterations(1000),
//	    tsne.WithSeed(42),
//	)
//
// Run returns the full Result, including the calibrated bandwidths, the set of
// points whose calibration did not converge and the sampled cost trace:
//
//	res, err := tsne.Run(ctx, vectors, 2, tsne.WithProgress(func(it int, cost float64) {
//	    log.Printf("iteration %d: KL=%.4f", it, cost)
//	}))
//
// # Complexity
//
// Every stage is exact and O(n²) in memory and time per iteration. The package
// targets tens to a few hundred points. Calibration and the gradient sweep run
// in parallel across points when the input is large enough; the result does not
// depend on the worker count.
//
// # Determinism
//
// The initial embedding is drawn from the source configured with WithSeed or
// WithRand. With a fixed source the output is bit-for-bit reproducible.
package tsne
