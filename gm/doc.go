// Package gm (stands for geometry math) provides some geometry primitives.
//
// It includes a 3d vector type Vec3 used for positions within a scene, a 2d
// vector type Vec for positions projected onto the ground plane and an axis
// aligned rectangle Rect.
package gm
