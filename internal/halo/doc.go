// Package halo locates a halo on a uniform grid and extracts its radial
// profiles.
//
//   - [FindCenter]: density maximum within a search radius of a first guess
//   - [Compute]: density, enclosed mass, circular velocity and rest-frame
//     velocity dispersion in logarithmic shells
//   - [Params]: summary record written once per snapshot
//
// # Example
//
//	peak, err := halo.FindCenter(g, "Dens", guess, 0.3)
//	prof, err := halo.Compute(g, halo.DefaultFields(), peak.Center, halo.Options{Bins: 32})
//	params := prof.Params(idx, peak)
package halo
