// Package kmeans is the k-means clustering visualizer.
package kmeans

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/replay"
)

// Checkpoint names.
const (
	// EventUpdate carries the centers before the update.
	EventUpdate = "update"
	// EventAssign carries the cluster index of every point.
	EventAssign = "assign"
)

// Point is a point on the plane.
type Point = [2]float64

// Args are the inputs of Cluster.
type Args struct {
	K      int     `json:"k" yaml:"k" mapstructure:"k"`
	Points []Point `json:"points" yaml:"points" mapstructure:"points"`
	// Seed drives the choice of the initial centers.
	Seed uint64 `json:"seed" yaml:"seed" mapstructure:"seed"`
	// MaxIterations bounds the number of update rounds. Zero means 100.
	MaxIterations int `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty" mapstructure:"max_iterations"`
}

// DefaultArgs seeds the start form with three gaussian blobs.
func DefaultArgs() Args {
	return Args{
		K:      3,
		Points: Blobs(90, 3, 1.0, 42),
		Seed:   42,
	}
}

// Manifest describes the visualizer.
var Manifest = domain.Manifest{
	ID: "k-means",
	Name: domain.Localized{
		En: "K-Means clustering",
		Ru: "Метод K-средних",
	},
	Description: domain.Localized{
		En: "Clustering algorithm https://en.wikipedia.org/wiki/K-means_clustering",
		Ru: "Алгоритм кластеризации https://ru.wikipedia.org/wiki/Метод_k-средних",
	},
	Author: domain.Localized{
		En: "Alzhanov Maxim",
		Ru: "Альжанов Максим",
	},
	Events: []string{EventUpdate, EventAssign},
	Tags:   []string{"clustering"},
}

var ErrInvalidK = errors.New("k must be between 1 and the number of points")

const defaultMaxIterations = 100

// Cluster runs Lloyd's algorithm until the centers stop moving.
// A center that loses all of its points stays where it was.
//
// State: "points" ([]Point), "centers" ([]Point).
func Cluster(ctx context.Context, t replay.Tracer, args Args) error {
	if args.K < 1 || args.K > len(args.Points) {
		return fmt.Errorf("%w: k=%d, points=%d", ErrInvalidK, args.K, len(args.Points))
	}
	maxIter := args.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	points := append([]Point(nil), args.Points...)
	t.Bind("points", points)

	rng := rand.New(rand.NewPCG(args.Seed, args.Seed^0x9e3779b97f4a7c15))
	centers := sample(rng, points, args.K)
	t.Update("centers", centers)
	if err := t.Here(ctx, EventUpdate, centers); err != nil {
		return err
	}

	converged := false
	for iter := 0; ; iter++ {
		clusters := assign(points, centers)
		if err := t.Here(ctx, EventAssign, clusters); err != nil {
			return err
		}
		if converged || iter >= maxIter {
			return nil
		}

		next := means(points, clusters, centers)
		converged = equal(next, centers)
		previous := centers
		centers = next
		t.Update("centers", centers)
		if err := t.Here(ctx, EventUpdate, previous); err != nil {
			return err
		}
	}
}

// Describe renders one recorded step as a line of text.
func Describe(ev domain.StoredEvent) string {
	switch ev.Name {
	case EventUpdate:
		centers, _ := ev.State["centers"].([]Point)
		return fmt.Sprintf("centers %s", formatPoints(centers))
	case EventAssign:
		if len(ev.Args) == 0 {
			return ev.Name
		}
		clusters, _ := ev.Args[0].([]int)
		sizes := map[int]int{}
		for _, c := range clusters {
			sizes[c]++
		}
		return fmt.Sprintf("assigned %d points, cluster sizes %v", len(clusters), sizes)
	}
	return ev.Name
}

func sample(rng *rand.Rand, points []Point, k int) []Point {
	idx := rng.Perm(len(points))[:k]
	centers := make([]Point, k)
	for i, j := range idx {
		centers[i] = points[j]
	}
	return centers
}

func distance(a, b Point) float64 {
	return math.Hypot(b[0]-a[0], b[1]-a[1])
}

func assign(points, centers []Point) []int {
	clusters := make([]int, len(points))
	for i, p := range points {
		best := math.Inf(1)
		for c, center := range centers {
			if d := distance(center, p); d < best {
				best = d
				clusters[i] = c
			}
		}
	}
	return clusters
}

func means(points []Point, clusters []int, centers []Point) []Point {
	sums := make([]Point, len(centers))
	counts := make([]int, len(centers))
	for i, c := range clusters {
		sums[c][0] += points[i][0]
		sums[c][1] += points[i][1]
		counts[c]++
	}
	next := make([]Point, len(centers))
	for c := range next {
		if counts[c] == 0 {
			next[c] = centers[c]
			continue
		}
		n := float64(counts[c])
		next[c] = Point{sums[c][0] / n, sums[c][1] / n}
	}
	return next
}

func equal(a, b []Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatPoints(points []Point) string {
	s := "["
	for i, p := range points {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("(%.2f, %.2f)", p[0], p[1])
	}
	return s + "]"
}
