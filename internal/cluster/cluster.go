// Package cluster partitions embedding vectors into groups of visually
// similar images using greedy single-link assignment over cosine similarity.
package cluster

import (
	"errors"
	"fmt"
)

// ErrInvalidThreshold is returned when the threshold is outside (0, 1].
var ErrInvalidThreshold = errors.New("threshold must be in (0, 1]")

// Item is a single input to the clusterer: a stable key (typically the file
// path) and its embedding vector.
type Item struct {
	Key    string
	Vector []float32
}

// Cluster is one group of the computed partition. The representative is
// always the first member added (first-member-wins, the representative never
// drifts as the cluster grows). Members are in input order and always
// include the representative.
type Cluster struct {
	ID             int      `json:"id"`
	Members        []string `json:"members"`
	Representative string   `json:"representative"`

	// repVector is the representative's embedding, kept for assignment.
	repVector []float32
}

// Engine partitions items into clusters. The zero value uses an exact linear
// scan over cluster representatives. Approximate switches the per-item scan
// to an HNSW index, which trades exactness of the nearest-representative
// lookup for sublinear search on large collections.
type Engine struct {
	Approximate bool
}

// Partition groups items into clusters so that every member of a cluster has
// cosine similarity >= threshold to the cluster's representative. Items are
// processed in input order; given identical input order, vectors and
// threshold, the output partition is identical across runs. Every item lands
// in exactly one cluster, singletons included.
func (e Engine) Partition(items []Item, threshold float64) ([]Cluster, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}

	if e.Approximate {
		return partitionHNSW(items, threshold)
	}
	return partitionExact(items, threshold), nil
}

// partitionExact scans every cluster representative for each item. O(N*K)
// where K is the number of clusters formed.
func partitionExact(items []Item, threshold float64) []Cluster {
	clusters := make([]Cluster, 0)

	for _, item := range items {
		best := -1
		bestSim := -1.0

		for i := range clusters {
			sim := CosineSimilarity(item.Vector, clusters[i].repVector)
			if sim > bestSim {
				best = i
				bestSim = sim
			}
		}

		if best >= 0 && bestSim >= threshold {
			clusters[best].Members = append(clusters[best].Members, item.Key)
			continue
		}

		clusters = append(clusters, Cluster{
			ID:             len(clusters),
			Members:        []string{item.Key},
			Representative: item.Key,
			repVector:      item.Vector,
		})
	}

	return clusters
}

// Singletons returns the clusters with exactly one member. The partition
// always contains them; callers that hide them apply this as a view filter.
func Singletons(clusters []Cluster) []Cluster {
	var out []Cluster
	for _, c := range clusters {
		if len(c.Members) == 1 {
			out = append(out, c)
		}
	}
	return out
}

// WithoutSingletons returns the clusters with two or more members.
func WithoutSingletons(clusters []Cluster) []Cluster {
	var out []Cluster
	for _, c := range clusters {
		if len(c.Members) > 1 {
			out = append(out, c)
		}
	}
	return out
}
