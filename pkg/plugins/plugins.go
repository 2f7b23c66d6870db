// Package plugins bundles the built-in plugins.
package plugins

import (
	"github.com/matzehuels/whiteboard/pkg/board"
	"github.com/matzehuels/whiteboard/pkg/plugins/geometry"
	"github.com/matzehuels/whiteboard/pkg/plugins/group"
	"github.com/matzehuels/whiteboard/pkg/plugins/selection"
)

// BuiltIn returns a fresh set of the built-in plugins, in dispatch order.
// The selection tool holds gesture state, so every board needs its own set.
func BuiltIn() []board.Plugin {
	return []board.Plugin{
		geometry.Plugin{},
		group.Plugin{},
		selection.New(),
	}
}

// NewBoard creates a board with the built-in plugins registered.
func NewBoard(opts ...board.Option) (*board.Board, error) {
	return board.New(append(opts, board.WithPlugins(BuiltIn()...))...)
}
