// Package render draws slice images with gonum/plot and terminal views of
// profile tables and halo parameters.
package render
