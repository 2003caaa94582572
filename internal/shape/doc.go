// Package shape builds flat records from a function result and the call that
// produced it.
//
// A record merges three sources, later sources winning on key collision:
//
//  1. Positional arguments, named after the callee's declared parameters
//     (or ArgPrefix+index when no name is declared)
//  2. Named arguments
//  3. Result fields (flattened by Shape, or wrapped under ResultKey)
//
// With flattening enabled, a result field that collides with a differently
// valued named argument is a ConflictError. Positional fields are simply
// overwritten. Skipped fields are removed only after conflict checks.
package shape
