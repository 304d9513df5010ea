// Package proration computes mid-cycle charge deltas for plan changes.
//
// The calculator is a pure function over prices and cycle bounds: it holds
// no state, reads no clock, and the same inputs always produce the same
// result. Rounding is half-up to the smallest currency unit.
package proration
