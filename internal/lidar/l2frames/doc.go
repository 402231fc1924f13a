// Package l2frames owns Layer 2 (Frames) of the LiDAR data model.
//
// Responsibilities: collecting decoded packet samples into a session point
// cloud, the max-radius filter, plane geometry (polar to Cartesian), and
// point-cloud summary statistics.
//
// Dependency rule: L2 may depend on L1, but never on higher layers.
package l2frames
