// Package visualizers wires the built-in algorithms into a registry.
package visualizers

import (
	"github.com/aretw0/algoviz/pkg/registry"
	"github.com/aretw0/algoviz/pkg/visualizers/bubblesort"
	"github.com/aretw0/algoviz/pkg/visualizers/convolution"
	"github.com/aretw0/algoviz/pkg/visualizers/dbscan"
	"github.com/aretw0/algoviz/pkg/visualizers/kmeans"
	"github.com/aretw0/algoviz/pkg/visualizers/turing"
	"github.com/aretw0/algoviz/pkg/visualizers/viterbi"
)

// All returns the built-in visualizers.
func All() []registry.Visualizer {
	return []registry.Visualizer{
		registry.Define(bubblesort.Manifest, bubblesort.Sort, bubblesort.DefaultArgs, bubblesort.Describe),
		registry.Define(kmeans.Manifest, kmeans.Cluster, kmeans.DefaultArgs, kmeans.Describe),
		registry.Define(dbscan.Manifest, dbscan.Cluster, dbscan.DefaultArgs, dbscan.Describe),
		registry.Define(turing.Manifest, turing.Run, turing.DefaultArgs, turing.Describe),
		registry.Define(convolution.Manifest, convolution.Convolve, convolution.DefaultArgs, convolution.Describe),
		registry.Define(viterbi.Manifest, viterbi.Decode, viterbi.DefaultArgs, viterbi.Describe),
	}
}

// Register adds the built-in visualizers to r.
func Register(r *registry.Registry) {
	for _, v := range All() {
		r.Register(v)
	}
}

// Default returns a registry holding the built-in visualizers.
func Default() *registry.Registry {
	r := registry.New()
	Register(r)
	return r
}
