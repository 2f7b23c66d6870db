// Package pkg provides the core libraries of the whiteboard document engine.
//
// # Overview
//
// A whiteboard is a tree of elements (shapes, groups) plus a viewport and a
// selection. Every change is an operation applied transactionally to the
// board; plugins give element types their hit-testing, geometry and
// drawing. The pkg directory is organized into these areas:
//
//  1. core - Data model: [core/path], [core/tree], [core/op], [core/geom]
//  2. [board] - The board: transactional apply, events, plugin dispatch
//  3. [plugins] - Built-in element types and the selection tool
//  4. [render] - SVG output and Graphviz scene diagrams
//  5. [store] - Persistence (file, SQLite, Redis, MongoDB) and autosave
//  6. [cache] - Derived artifact caching, e.g. rendered SVG
//
// # Architecture
//
//	operations (JSON, UI gestures)
//	         ↓
//	    [core/op/transform] (rebase a batch over itself)
//	         ↓
//	    [board] (apply on a draft tree, commit, emit events)
//	         ↓
//	    [plugins] → [render] (SVG)
//	         ↓
//	    [store] (snapshot by digest)
//
// # Quick Start
//
//	b, _ := plugins.NewBoard(board.WithData(data))
//	res, err := b.ApplyBatch(ops)
//	svg := b.SVG()
//
// [core/path]: https://pkg.go.dev/github.com/matzehuels/whiteboard/pkg/core/path
// [core/tree]: https://pkg.go.dev/github.com/matzehuels/whiteboard/pkg/core/tree
// [core/op]: https://pkg.go.dev/github.com/matzehuels/whiteboard/pkg/core/op
// [core/geom]: https://pkg.go.dev/github.com/matzehuels/whiteboard/pkg/core/geom
// [board]: https://pkg.go.dev/github.com/matzehuels/whiteboard/pkg/board
// [plugins]: https://pkg.go.dev/github.com/matzehuels/whiteboard/pkg/plugins
// [render]: https://pkg.go.dev/github.com/matzehuels/whiteboard/pkg/render
// [store]: https://pkg.go.dev/github.com/matzehuels/whiteboard/pkg/store
// [cache]: https://pkg.go.dev/github.com/matzehuels/whiteboard/pkg/cache
// [core/op/transform]: https://pkg.go.dev/github.com/matzehuels/whiteboard/pkg/core/op/transform
package pkg
