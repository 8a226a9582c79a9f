// Package consolidation detects, scores and resolves duplicate carts within
// a single order.
//
// Every function here works on a caller-owned snapshot of an order's cart
// set and returns a new set; inputs are never mutated and no references are
// kept between calls. Persisting the result and swapping it into whatever
// state the application shows is the caller's job.
package consolidation
