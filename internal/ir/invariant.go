package ir

import "github.com/rahularya50/lispc/internal/diag"

// panicMissingBlock reports a block-map or arena lookup miss, which
// §4.2 classifies as a programmer error: unreachable on any well-formed
// input.
func panicMissingBlock(id BlockID) {
	diag.Violatef("no block with id %d in arena", id)
}
