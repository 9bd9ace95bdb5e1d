// Package dbscan is the DBSCAN density clustering visualizer.
package dbscan

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/replay"
)

// Checkpoint names.
const (
	EventStart         = "start"
	EventNoise         = "noise"
	EventExpandCluster = "expand_cluster"
	EventNewCluster    = "new_cluster"
	EventDone          = "done"
)

// Point labels. Positive labels are cluster numbers.
const (
	Unvisited = 0
	Noise     = -1
)

// Args are the inputs of Cluster.
type Args struct {
	Points     [][]float64 `json:"points" yaml:"points" mapstructure:"points"`
	Eps        float64     `json:"eps" yaml:"eps" mapstructure:"eps"`
	MinSamples int         `json:"min_samples" yaml:"min_samples" mapstructure:"min_samples"`
}

// DefaultArgs seeds the start form with two dense squares and one outlier.
func DefaultArgs() Args {
	return Args{
		Points: [][]float64{
			{0, 0}, {1, 0}, {0, 1}, {1, 1},
			{10, 3},
			{5, 5}, {5, 6}, {6, 5}, {6, 6},
		},
		Eps:        2,
		MinSamples: 3,
	}
}

// Manifest describes the visualizer.
var Manifest = domain.Manifest{
	ID: "dbscan",
	Name: domain.Localized{
		En: "DBSCAN",
		Ru: "DBSCAN",
	},
	Description: domain.Localized{
		En: "Density-based clustering https://en.wikipedia.org/wiki/DBSCAN",
		Ru: "Плотностной алгоритм кластеризации",
	},
	Events: []string{EventStart, EventNoise, EventExpandCluster, EventNewCluster, EventDone},
	Tags:   []string{"clustering"},
}

// Counter is a boxed integer, so that the bound state keeps following it.
type Counter struct {
	Value int `json:"value"`
}

var ErrInvalidArgs = errors.New("invalid dbscan arguments")

// Cluster labels every point with a cluster number, or Noise.
// The working cluster number starts at 1.
//
// State: "points" ([][]float64), "labels" ([]int), "cluster" (*Counter).
func Cluster(ctx context.Context, t replay.Tracer, args Args) error {
	if args.Eps <= 0 || args.MinSamples < 1 {
		return fmt.Errorf("%w: eps=%v, min_samples=%d", ErrInvalidArgs, args.Eps, args.MinSamples)
	}

	labels := make([]int, len(args.Points))
	cluster := &Counter{Value: 1}

	t.Bind("points", args.Points)
	t.Bind("labels", labels)
	t.Bind("cluster", cluster)

	if err := t.Here(ctx, EventStart); err != nil {
		return err
	}

	c := clusterer{
		t:          t,
		labels:     labels,
		neighbors:  neighborhoods(args.Points, args.Eps),
		cluster:    cluster,
		minSamples: args.MinSamples,
	}
	for i := range args.Points {
		grown, err := c.expand(ctx, i)
		if err != nil {
			return err
		}
		if !grown {
			continue
		}
		cluster.Value++
		if err := t.Here(ctx, EventNewCluster, cluster.Value); err != nil {
			return err
		}
	}

	return t.Here(ctx, EventDone)
}

type clusterer struct {
	t          replay.Tracer
	labels     []int
	neighbors  [][]int
	cluster    *Counter
	minSamples int
}

// expand grows the current cluster from point i. It reports whether i seeded it.
func (c *clusterer) expand(ctx context.Context, i int) (bool, error) {
	if c.labels[i] != Unvisited {
		return false, nil
	}

	n := len(c.neighbors[i])
	if n < c.minSamples {
		c.labels[i] = Noise
		return false, c.t.Here(ctx, EventNoise, i, n)
	}

	c.labels[i] = c.cluster.Value
	if err := c.t.Here(ctx, EventExpandCluster, i, n); err != nil {
		return false, err
	}
	for _, j := range c.neighbors[i] {
		if c.labels[j] != Unvisited {
			continue
		}
		if _, err := c.expand(ctx, j); err != nil {
			return false, err
		}
	}
	return true, nil
}

// neighborhoods lists, for every point, the points strictly closer than eps.
func neighborhoods(points [][]float64, eps float64) [][]int {
	neighbors := make([][]int, len(points))
	for i := 0; i < len(points)-1; i++ {
		for j := i + 1; j < len(points); j++ {
			if distance(points[i], points[j]) < eps {
				neighbors[i] = append(neighbors[i], j)
				neighbors[j] = append(neighbors[j], i)
			}
		}
	}
	return neighbors
}

func distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		var v float64
		if i < len(b) {
			v = b[i]
		}
		sum += (a[i] - v) * (a[i] - v)
	}
	return math.Sqrt(sum)
}

// Describe renders one recorded step as a line of text.
func Describe(ev domain.StoredEvent) string {
	switch ev.Name {
	case EventNoise:
		if len(ev.Args) == 2 {
			return fmt.Sprintf("point %v is noise (%v neighbors)", ev.Args[0], ev.Args[1])
		}
	case EventExpandCluster:
		if len(ev.Args) == 2 {
			cluster := "?"
			if c, ok := ev.State["cluster"].(*Counter); ok {
				cluster = fmt.Sprint(c.Value)
			}
			return fmt.Sprintf("point %v joins cluster %s (%v neighbors)", ev.Args[0], cluster, ev.Args[1])
		}
	case EventNewCluster:
		if len(ev.Args) == 1 {
			return fmt.Sprintf("next cluster is %v", ev.Args[0])
		}
	case EventDone:
		labels, _ := ev.State["labels"].([]int)
		return fmt.Sprintf("labels %v", labels)
	}
	return ev.Name
}
