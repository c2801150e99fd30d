package cluster

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

// unitVec returns a 3-dim unit vector at the given angle (radians) in the
// XY plane. Cosine similarity between two such vectors is cos(a-b).
func unitVec(angle float64) []float32 {
	return []float32{float32(math.Cos(angle)), float32(math.Sin(angle)), 0}
}

// nearDuplicateSet is five images: three near-duplicates (pairwise
// similarity ~0.95) and two distinct ones (similarity < 0.5 to everything).
func nearDuplicateSet() []Item {
	return []Item{
		{Key: "a1.jpg", Vector: unitVec(0)},
		{Key: "a2.jpg", Vector: unitVec(0.2)},  // cos(0.2) ~ 0.98
		{Key: "a3.jpg", Vector: unitVec(0.25)}, // cos(0.25) ~ 0.97
		{Key: "b.jpg", Vector: unitVec(1.4)},   // cos(1.4) ~ 0.17
		{Key: "c.jpg", Vector: []float32{0, 0, 1}},
	}
}

func TestPartition_NearDuplicatesAndSingletons(t *testing.T) {
	clusters, err := Engine{}.Partition(nearDuplicateSet(), 0.9)
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}

	if len(clusters) != 3 {
		t.Fatalf("expected 3 clusters, got %d", len(clusters))
	}

	want := []string{"a1.jpg", "a2.jpg", "a3.jpg"}
	if !reflect.DeepEqual(clusters[0].Members, want) {
		t.Errorf("expected first cluster %v, got %v", want, clusters[0].Members)
	}
	if clusters[0].Representative != "a1.jpg" {
		t.Errorf("expected representative a1.jpg, got %s", clusters[0].Representative)
	}

	for _, c := range clusters[1:] {
		if len(c.Members) != 1 {
			t.Errorf("expected singleton, got %v", c.Members)
		}
	}
}

func TestPartition_ThresholdOneYieldsAllSingletons(t *testing.T) {
	items := nearDuplicateSet()

	clusters, err := Engine{}.Partition(items, 1.0)
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}

	if len(clusters) != len(items) {
		t.Fatalf("expected %d singleton clusters, got %d", len(items), len(clusters))
	}
	for i, c := range clusters {
		if len(c.Members) != 1 || c.Members[0] != items[i].Key {
			t.Errorf("cluster %d: expected singleton %s, got %v", i, items[i].Key, c.Members)
		}
	}
}

func TestPartition_PartitionInvariant(t *testing.T) {
	items := []Item{
		{Key: "p0", Vector: unitVec(0)},
		{Key: "p1", Vector: unitVec(0.1)},
		{Key: "p2", Vector: unitVec(0.7)},
		{Key: "p3", Vector: unitVec(0.75)},
		{Key: "p4", Vector: unitVec(1.5)},
		{Key: "p5", Vector: unitVec(3.0)},
	}

	for _, threshold := range []float64{0.5, 0.8, 0.95, 1.0} {
		clusters, err := Engine{}.Partition(items, threshold)
		if err != nil {
			t.Fatalf("threshold %v: %v", threshold, err)
		}

		seen := make(map[string]int)
		for _, c := range clusters {
			if c.Representative != c.Members[0] {
				t.Errorf("threshold %v: representative %s is not first member %s",
					threshold, c.Representative, c.Members[0])
			}
			for _, m := range c.Members {
				seen[m]++
			}
		}

		if len(seen) != len(items) {
			t.Errorf("threshold %v: %d items clustered, want %d", threshold, len(seen), len(items))
		}
		for key, count := range seen {
			if count != 1 {
				t.Errorf("threshold %v: %s appears in %d clusters", threshold, key, count)
			}
		}
	}
}

func TestPartition_ThresholdMonotonicity(t *testing.T) {
	items := nearDuplicateSet()

	prev := 0
	for _, threshold := range []float64{0.1, 0.3, 0.5, 0.7, 0.9, 0.99, 1.0} {
		clusters, err := Engine{}.Partition(items, threshold)
		if err != nil {
			t.Fatalf("threshold %v: %v", threshold, err)
		}
		if len(clusters) < prev {
			t.Errorf("threshold %v: cluster count dropped from %d to %d",
				threshold, prev, len(clusters))
		}
		prev = len(clusters)
	}
}

func TestPartition_Deterministic(t *testing.T) {
	items := nearDuplicateSet()

	first, err := Engine{}.Partition(items, 0.9)
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	second, err := Engine{}.Partition(items, 0.9)
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("two runs over identical input diverged:\n%v\n%v", first, second)
	}
}

func TestPartition_InvalidThreshold(t *testing.T) {
	for _, threshold := range []float64{0, -0.5, 1.01} {
		_, err := Engine{}.Partition(nearDuplicateSet(), threshold)
		if !errors.Is(err, ErrInvalidThreshold) {
			t.Errorf("threshold %v: expected ErrInvalidThreshold, got %v", threshold, err)
		}
	}
}

func TestPartition_EmptyInput(t *testing.T) {
	clusters, err := Engine{}.Partition(nil, 0.9)
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	if len(clusters) != 0 {
		t.Errorf("expected no clusters, got %d", len(clusters))
	}
}

func TestPartition_ApproximateMatchesExactOnSmallInput(t *testing.T) {
	items := nearDuplicateSet()

	exact, err := Engine{}.Partition(items, 0.9)
	if err != nil {
		t.Fatalf("exact Partition failed: %v", err)
	}
	approx, err := Engine{Approximate: true}.Partition(items, 0.9)
	if err != nil {
		t.Fatalf("approximate Partition failed: %v", err)
	}

	if len(exact) != len(approx) {
		t.Fatalf("exact produced %d clusters, approximate %d", len(exact), len(approx))
	}
	for i := range exact {
		if !reflect.DeepEqual(exact[i].Members, approx[i].Members) {
			t.Errorf("cluster %d: exact %v, approximate %v", i, exact[i].Members, approx[i].Members)
		}
	}
}

func TestSingletonFilters(t *testing.T) {
	clusters, err := Engine{}.Partition(nearDuplicateSet(), 0.9)
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}

	if got := len(Singletons(clusters)); got != 2 {
		t.Errorf("expected 2 singletons, got %d", got)
	}
	if got := len(WithoutSingletons(clusters)); got != 1 {
		t.Errorf("expected 1 multi-member cluster, got %d", got)
	}
}
