// Package used for reading, validating and writing the data around the tree
// builders
package prep

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/evolbioinfo/gotree/tree"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnrooted = errors.New("not rooted")
	ErrMulTree  = errors.New("contains duplicate labels")
)

// Checks input trees before consensus. Every tree must have unique leaf
// labels, and must be rooted if rooted is set. Lengths and comments are
// cleared since consensus ignores them.
func PrepareTrees(trees []*tree.Tree, names []string, rooted bool, nprocs int) error {
	if len(names) != len(trees) {
		panic(fmt.Sprintf("there should be a name for every tree (%d != %d)", len(names), len(trees)))
	}
	log.Printf("preparing %d input trees", len(trees))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(nprocs, 1))
	for i, tre := range trees {
		i, tre := i, tre
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := tre.UpdateTipIndex(); err != nil {
				return fmt.Errorf("tree %s %w", names[i], ErrMulTree)
			}
			if rooted && !tre.Rooted() {
				return fmt.Errorf("tree %s is %w", names[i], ErrUnrooted)
			}
			tre.ClearLengths(true, true)
			tre.ClearComments()
			return nil
		})
	}
	return g.Wait()
}
