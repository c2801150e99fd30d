package cluster

import "github.com/coder/hnsw"

// HNSW index parameters for the representative index.
const (
	// hnswMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	hnswMaxNeighbors = 16

	// hnswSearchK is the number of candidate representatives fetched per
	// item. More than one candidate is requested because the graph search
	// is approximate and the nearest node may rank below the true nearest.
	hnswSearchK = 8
)

// partitionHNSW is the approximate variant of partitionExact. Instead of
// scanning every representative for each item, it keeps cluster
// representatives in an HNSW graph and queries it for the nearest ones.
// The assignment rule is unchanged: best representative wins when its
// similarity is at or above the threshold, otherwise a new cluster opens.
func partitionHNSW(items []Item, threshold float64) ([]Cluster, error) {
	g := hnsw.NewGraph[int]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance

	clusters := make([]Cluster, 0)

	for _, item := range items {
		best := -1
		bestSim := -1.0

		if len(clusters) > 0 {
			neighbors := g.Search(item.Vector, hnswSearchK)
			for _, n := range neighbors {
				// Recompute the exact similarity; the graph distance is
				// only used to narrow the candidate set.
				sim := CosineSimilarity(item.Vector, clusters[n.Key].repVector)
				if sim > bestSim {
					best = n.Key
					bestSim = sim
				}
			}
		}

		if best >= 0 && bestSim >= threshold {
			clusters[best].Members = append(clusters[best].Members, item.Key)
			continue
		}

		id := len(clusters)
		clusters = append(clusters, Cluster{
			ID:             id,
			Members:        []string{item.Key},
			Representative: item.Key,
			repVector:      item.Vector,
		})
		g.Add(hnsw.MakeNode(id, item.Vector))
	}

	return clusters, nil
}
