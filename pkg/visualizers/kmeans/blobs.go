package kmeans

import "math/rand/v2"

// Blobs generates n points around centers random centers inside [-10, 10]²,
// each coordinate normally distributed with deviation std. The output is
// shuffled and fully determined by seed.
func Blobs(n, centers int, std float64, seed uint64) []Point {
	if n <= 0 || centers <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(seed, seed))

	origins := make([]Point, centers)
	for i := range origins {
		origins[i] = Point{uniform(rng, -10, 10), uniform(rng, -10, 10)}
	}

	points := make([]Point, n)
	for i := range points {
		o := origins[i%centers]
		points[i] = Point{
			rng.NormFloat64()*std + o[0],
			rng.NormFloat64()*std + o[1],
		}
	}
	rng.Shuffle(len(points), func(i, j int) {
		points[i], points[j] = points[j], points[i]
	})
	return points
}

func uniform(rng *rand.Rand, from, to float64) float64 {
	return rng.Float64()*(to-from) + from
}
