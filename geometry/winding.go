package geometry

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/xtalmesh/utils"
)

// WindingNumber computes the generalized winding number of the surface at
// each query point: the signed solid angle subtended by every face divided by
// 4π. For an outward oriented closed surface this is 1 inside and 0 outside;
// open or imperfect surfaces give values in between.
//
// The cost is O(points * faces) per surface. With Cull set, points outside
// the surface bounding box score 0 without visiting the faces, which is
// exact for closed surfaces only.
type WindingNumber struct {
	Workers int // Number of goroutines, defaults to the CPU count
	Cull    bool
}

// Scores implements classify.EnclosureScorer
func (wn WindingNumber) Scores(ctx context.Context, tm *TriMesh, pts []r3.Vec) ([]float64, error) {
	var (
		w      = make([]float64, len(pts))
		pm     = utils.NewPartitionMap(utils.Workers(wn.Workers), len(pts))
		bounds = tm.Bounds()
	)
	g, ctx := errgroup.WithContext(ctx)
	for bn := 0; bn < pm.ParallelDegree; bn++ {
		kMin, kMax := pm.GetBucketRange(bn)
		g.Go(func() error {
			for k := kMin; k < kMax; k++ {
				if (k-kMin)%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if wn.Cull && !bounds.Contains(pts[k]) {
					continue
				}
				w[k] = tm.WindingNumberAt(pts[k])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return w, nil
}

// WindingNumberAt returns the generalized winding number at p
func (tm *TriMesh) WindingNumberAt(p r3.Vec) float64 {
	var omega float64
	for f := range tm.F {
		omega += solidAngle(
			r3.Sub(tm.V[tm.F[f][0]], p),
			r3.Sub(tm.V[tm.F[f][1]], p),
			r3.Sub(tm.V[tm.F[f][2]], p))
	}
	return omega / (4 * math.Pi)
}

// solidAngle is the signed solid angle of the triangle (a,b,c) seen from the
// origin (Van Oosterom and Strackee).
func solidAngle(a, b, c r3.Vec) float64 {
	var (
		la, lb, lc = r3.Norm(a), r3.Norm(b), r3.Norm(c)
		num        = r3.Dot(a, r3.Cross(b, c))
		den        = la*lb*lc + r3.Dot(a, b)*lc + r3.Dot(b, c)*la + r3.Dot(c, a)*lb
	)
	if la == 0 || lb == 0 || lc == 0 {
		return 0
	}
	return 2 * math.Atan2(num, den)
}
