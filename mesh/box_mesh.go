package mesh

// Kuhn subdivision of a unit cell into six tets sharing the diagonal from
// corner 0 to corner 7. Corner c has offsets (c&1, c>>1&1, c>>2&1). Using the
// same subdivision in every cell gives a conforming mesh.
var kuhnTets = [6][4]int{
	{0, 1, 3, 7},
	{0, 1, 5, 7},
	{0, 2, 3, 7},
	{0, 2, 6, 7},
	{0, 4, 5, 7},
	{0, 4, 6, 7},
}

// BoxMesh returns a conforming linear tet mesh of the box [min, max] with
// n cells along each axis.
func BoxMesh(n int, min, max [3]float64) *VolumeMesh {
	var (
		np  = n + 1
		msh = &VolumeMesh{Type: Tet}
		id  = func(i, j, k int) int { return i + np*(j+np*k) }
	)
	msh.Nodes = make([][3]float64, 0, np*np*np)
	for k := 0; k < np; k++ {
		for j := 0; j < np; j++ {
			for i := 0; i < np; i++ {
				ijk := [3]int{i, j, k}
				var p [3]float64
				for d := 0; d < 3; d++ {
					p[d] = min[d] + (max[d]-min[d])*float64(ijk[d])/float64(n)
				}
				msh.Nodes = append(msh.Nodes, p)
			}
		}
	}
	msh.Elements = make([][]int, 0, 6*n*n*n)
	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				var corner [8]int
				for c := range corner {
					corner[c] = id(i+c&1, j+(c>>1)&1, k+(c>>2)&1)
				}
				for _, tet := range kuhnTets {
					msh.Elements = append(msh.Elements,
						[]int{corner[tet[0]], corner[tet[1]], corner[tet[2]], corner[tet[3]]})
				}
			}
		}
	}
	return msh
}
