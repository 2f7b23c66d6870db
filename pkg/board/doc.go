// Package board implements the whiteboard engine: the canonical element
// tree, viewport and selection of one open document, the transactional
// application of operations, and the plugin registry that gives element
// types their behavior.
//
// # Overview
//
// A [Board] is created once per open document and owns three records:
//
//   - the element tree, reachable through [Board.Root] and [Board.Children]
//   - the [ViewPort], the visible logical rectangle and zoom factor
//   - the [Selection], the current select area and selected elements
//
// None of them is mutated directly. Every change is an [op.Operation]
// passed to [Board.Apply] or [Board.ApplyBatch].
//
// # Transactions
//
// Apply opens a copy-on-write draft over the current tree, performs the
// mutation, and swaps the finalized root in only if every step succeeded.
// On error the draft is dropped and nothing changes; observers never see a
// partially applied operation. Elements that were not on a modified path are
// shared between the old and the new tree, so a reader holding an old
// snapshot keeps a consistent view at no cost:
//
//	before := b.Children()
//	err := b.Apply(op.SetNode{Path: path.Path{42}, NewProperties: tree.Props{"x": 10.0}})
//	// before[0] == b.Children()[0], before[42] != b.Children()[42]
//
// # Batches
//
// ApplyBatch applies operations that were all computed against the same
// snapshot, such as one move per selected element. After each step the
// remaining operations are rebased with the op/transform package so that
// they still address the nodes they were computed for. Operations whose
// target was removed by an earlier step are dropped and reported in
// [BatchResult.Dropped]; a batch with a real error applies nothing.
//
// # Events
//
// After a commit the board notifies listeners registered with [Board.On],
// synchronously and in order:
//
//   - [EventValueChange] once per applied tree operation
//   - [EventViewPortChange] once per applied set_viewport
//   - [EventSelectionChange] once per applied set_selection
//   - [EventChange] once per commit, for persistence
//
// Listeners run after the new state is visible and may apply follow-up
// operations. They must not assume they are the only listener.
//
// # Plugins
//
// A [Plugin] is registered under a name equal to the element type it owns.
// Capabilities are optional interfaces ([HitTester], [Boxer], [Mover],
// [Renderer], [EventSource], ...) detected at registration. An element
// whose type has no registered plugin is tolerated everywhere: it renders
// nothing, hits nothing and has no bounding box.
//
// Input events are dispatched with [Board.Dispatch] to every plugin that
// handles the event type, in registration order. A handler ends the chain by
// returning false or by calling [Event.PreventDefault].
//
// A Board is not safe for concurrent use.
package board
