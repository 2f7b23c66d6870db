package board_test

import (
	"fmt"

	"github.com/matzehuels/whiteboard/pkg/board"
	"github.com/matzehuels/whiteboard/pkg/core/op"
	"github.com/matzehuels/whiteboard/pkg/core/path"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
)

func note(id string) *tree.Element {
	return &tree.Element{ID: id, Type: "note", Props: tree.Props{"text": id}}
}

func ids(b *board.Board) []string {
	var out []string
	for _, el := range b.Children() {
		out = append(out, el.ID)
	}
	return out
}

func Example() {
	b, _ := board.New(board.WithData(board.Data{
		Children: []*tree.Element{note("a"), note("b")},
	}))
	b.On(board.EventChange, func(c board.Change) {
		fmt.Println("changed by", len(c.Operations), "operation(s)")
	})

	_ = b.Apply(op.InsertNode{Path: path.Path{1}, Node: note("c")})
	fmt.Println(ids(b))
	// Output:
	// changed by 1 operation(s)
	// [a c b]
}

func ExampleBoard_ApplyBatch() {
	b, _ := board.New(board.WithData(board.Data{
		Children: []*tree.Element{note("a"), note("b"), note("c")},
	}))

	// Both operations were computed against [a b c]. Removing b first
	// invalidates the edit of b; the edit of c is shifted to path [1].
	res, _ := b.ApplyBatch([]op.Operation{
		op.RemoveNode{Path: path.Path{1}},
		op.SetNode{Path: path.Path{1}, NewProperties: tree.Props{"text": "B"}},
		op.SetNode{Path: path.Path{2}, NewProperties: tree.Props{"text": "C"}},
	})
	fmt.Println(ids(b), "dropped", res.Dropped)
	fmt.Println(b.Children()[1].Props["text"])
	// Output:
	// [a c] dropped [1]
	// C
}

func ExampleViewPort_ZoomAt() {
	v := board.DefaultViewPort().ZoomAt(2, 400, 300)
	fmt.Printf("%.0f %.0f %.0f %.0f\n", v.MinX, v.MinY, v.Width, v.Height)
	// Output:
	// 200 150 400 300
}
