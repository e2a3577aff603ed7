// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package siteplan

import "math"

// Rect is an axis-aligned rectangle on the lot plane. X, Y is the
// front-left corner; W runs along x and H along y. Units are feet.
// A zero-size Rect is a point.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Area returns the rectangle's area in square feet.
func (r Rect) Area() float64 {
	return r.W * r.H
}

// Overlaps reports whether r and o share interior area. Rectangles
// that merely touch along an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W &&
		r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Contains reports whether the point (px, py) lies inside r,
// inclusive of the boundary.
func (r Rect) Contains(px, py float64) bool {
	return px >= r.X && px <= r.X+r.W && py >= r.Y && py <= r.Y+r.H
}

// GapDistance returns the shortest distance between the boundaries of
// r and o: zero when they overlap or touch, the axis gap when they are
// separated along one axis, and the corner-to-corner Euclidean
// distance when separated along both. This is the single distance
// routine shared by buffer and separation checks so that the two
// always agree.
func (r Rect) GapDistance(o Rect) float64 {
	dx := axisGap(r.X, r.W, o.X, o.W)
	dy := axisGap(r.Y, r.H, o.Y, o.H)
	switch {
	case dx > 0 && dy > 0:
		return math.Hypot(dx, dy)
	case dx > 0:
		return dx
	case dy > 0:
		return dy
	default:
		return 0
	}
}

// axisGap returns the 1D gap between spans [aPos, aPos+aLen] and
// [bPos, bPos+bLen], or 0 when they intersect.
func axisGap(aPos, aLen, bPos, bLen float64) float64 {
	if aPos+aLen < bPos {
		return bPos - (aPos + aLen)
	}
	if bPos+bLen < aPos {
		return aPos - (bPos + bLen)
	}
	return 0
}
