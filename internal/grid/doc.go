// Package grid provides the uniform-grid dataset used by both pipelines.
//
// A [UniformGrid] is a single regularly spaced 3-D block of cells with a
// bounding box, code-unit scale factors and any number of named fields:
//
//   - [New]: build and validate a grid from raw field arrays
//   - [Transpose]: reorder an on-disk [z][y][x] array into [x][y][z]
//   - [UniformGrid.Slice]: extract a 2-D plane for rendering
//   - [UniformGrid.SphereBounds]: cell-aligned bounds of a search sphere
//
// # Layout
//
// Field data is stored x-slowest: idx = (i*ny + j)*nz + k.
//
//	g, err := grid.New([]grid.FieldData{{Name: "Dens", Unit: "code_density", Data: rho}}, grid.Options{
//	    Dims: [3]int{64, 64, 64},
//	    BBox: grid.BBoxFromEdges(left, size),
//	})
package grid
