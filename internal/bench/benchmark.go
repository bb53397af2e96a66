// Package bench implements a brute-force-vs-approximate recall and latency
// benchmark, as a standalone component the Retriever calls into rather than
// an inline method.
package bench

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sadra3st/CBIR/internal/errors"
	"github.com/Sadra3st/CBIR/internal/index"
	"github.com/Sadra3st/CBIR/internal/store"
	"github.com/Sadra3st/CBIR/internal/vectormath"
)

// Method pairs a display name with the engine it benchmarks.
type Method struct {
	Name   string
	Engine index.Engine
}

// methodResult accumulates one method's timing and recall across every
// sampled query.
type methodResult struct {
	name     string
	duration time.Duration
	hits     int
}

// Run benchmarks bruteForce (the ground truth) against each approximate
// method over numQueries vectors sampled uniformly at random from vectors,
// each used as its own query. Grounded method-for-method on
// original_source/vector_db/crud.py's benchmark_algorithms, with the
// per-method timing passes run concurrently via golang.org/x/sync/errgroup
// since they are read-only and independent once ground truth exists.
func Run(vectors map[store.ItemID]vectormath.Vector, bruteForce index.Engine, methods []Method, numQueries, k int) (string, error) {
	if len(vectors) < numQueries {
		return "", errors.New(errors.ErrCodeNotEnoughData,
			fmt.Sprintf("need at least %d items to benchmark, have %d", numQueries, len(vectors)), nil)
	}

	ids := make([]store.ItemID, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	queryIDs := ids[:numQueries]

	groundTruth := make([]map[store.ItemID]struct{}, numQueries)
	var bfDuration time.Duration
	for i, id := range queryIDs {
		q := vectors[id]

		start := time.Now()
		results, err := bruteForce.Query(q, k)
		bfDuration += time.Since(start)
		if err != nil {
			return "", fmt.Errorf("brute force query failed: %w", err)
		}

		set := make(map[store.ItemID]struct{}, len(results))
		for _, r := range results {
			set[r.ID] = struct{}{}
		}
		groundTruth[i] = set
	}

	results := make([]methodResult, len(methods))
	var g errgroup.Group
	for i, m := range methods {
		i, m := i, m
		g.Go(func() error {
			var duration time.Duration
			hits := 0
			for qi, id := range queryIDs {
				q := vectors[id]

				start := time.Now()
				approx, err := m.Engine.Query(q, k)
				duration += time.Since(start)
				if err != nil {
					return fmt.Errorf("%s query failed: %w", m.Name, err)
				}

				for _, r := range approx {
					if _, ok := groundTruth[qi][r.ID]; ok {
						hits++
					}
				}
			}
			results[i] = methodResult{name: m.Name, duration: duration, hits: hits}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	return formatReport(numQueries, k, bfDuration, results), nil
}

func formatReport(numQueries, k int, bfDuration time.Duration, results []methodResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- BENCHMARK RESULTS (Queries: %d, K: %d) ---\n\n", numQueries, k)

	bfAvg := bfDuration.Seconds() / float64(numQueries)
	fmt.Fprintf(&b, "Brute Force (Exact):\n  Avg Time: %.5fs\n  Recall: 100%%\n\n", bfAvg)

	for _, r := range results {
		avg := r.duration.Seconds() / float64(numQueries)
		recall := (float64(r.hits) / float64(numQueries*k)) * 100
		speedup := 0.0
		if avg > 0 {
			speedup = bfAvg / avg
		}

		fmt.Fprintf(&b, "%s:\n  Avg Time: %.5fs (Speedup: %.1fx)\n  Recall:   %.1f%%\n\n",
			strings.ToUpper(r.name), avg, speedup, recall)
	}

	return b.String()
}
