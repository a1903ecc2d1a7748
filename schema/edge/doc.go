// Package edge defines the delete rules of relationships.
//
//	edge.Nullify   // clear the reference on the destination (default)
//	edge.Cascade   // delete the destination objects too
//	edge.Deny      // refuse deletion while the destination is set
//	edge.NoAction  // leave the destination untouched
package edge
