// Package history records reversible edits grouped into transactions and
// provides undo/redo over them.
package history

import (
	"github.com/bethropolis/ebb/internal/buffer"
	"github.com/bethropolis/ebb/internal/types"
)

// Actor identifies who produced an edit. Edits from different actors never
// coalesce.
type Actor string

const (
	ActorUser     Actor = "user"
	ActorServer   Actor = "lsp"      // workspace edits such as rename
	ActorExternal Actor = "external" // file reloaded from disk
)

// Transaction is a group of edits that undo and redo as one step.
// On the undo stack Actions hold inverse edits in the order they were
// recorded; on the redo stack they hold forward edits in application order.
type Transaction struct {
	Actions      []buffer.Edit
	CursorBefore types.Position
	CursorAfter  types.Position
	Actor        Actor
}

// Applier applies an edit to the document and returns its inverse.
type Applier interface {
	ApplyEdit(e buffer.Edit) buffer.Edit
}
