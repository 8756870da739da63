// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gfx

import (
	"honnef.co/go/color"
)

// White is opaque white in vertex color format, the color of untinted
// geometry.
var White = [4]float32{1, 1, 1, 1}

// Straight32 converts a color to non-premultiplied RGBA vertex format.
func Straight32(c *color.Color) [4]float32 {
	cc := c.Convert(color.LinearSRGB)
	return [4]float32{
		float32(cc.Values[0]),
		float32(cc.Values[1]),
		float32(cc.Values[2]),
		float32(cc.Values[3]),
	}
}

// Premul32 converts a color to alpha-premultiplied RGBA vertex format.
func Premul32(c *color.Color) [4]float32 {
	cc := c.Convert(color.LinearSRGB)
	r := cc.Values[0]
	g := cc.Values[1]
	b := cc.Values[2]
	a := cc.Values[3]

	return [4]float32{
		float32(r * a),
		float32(g * a),
		float32(b * a),
		float32(a),
	}
}

// Premultiply scales the color channels of a straight RGBA value by its
// alpha channel.
func Premultiply(rgba [4]float32) [4]float32 {
	a := rgba[3]
	return [4]float32{rgba[0] * a, rgba[1] * a, rgba[2] * a, a}
}

// Unmultiply undoes Premultiply. A fully transparent value has no color
// information left and unmultiplies to transparent black.
func Unmultiply(rgba [4]float32) [4]float32 {
	a := rgba[3]
	if a == 0 {
		return [4]float32{}
	}
	return [4]float32{rgba[0] / a, rgba[1] / a, rgba[2] / a, a}
}
