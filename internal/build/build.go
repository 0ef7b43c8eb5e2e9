// Package build selects and constructs tree builders. Every call returns a
// fresh single-use builder; nothing is cached between calls.
package build

import (
	"fmt"

	"github.com/evolbioinfo/gotree/tree"

	"github.com/trainrun/jebl2/internal/cluster"
	"github.com/trainrun/jebl2/internal/consensus"
	"github.com/trainrun/jebl2/internal/distance"
	gr "github.com/trainrun/jebl2/internal/graphs"
)

type ClusteringMethod int

const (
	NeighborJoining ClusteringMethod = iota
	UPGMA
)

var ParseClusteringMethod = map[string]ClusteringMethod{
	"nj":    NeighborJoining,
	"upgma": UPGMA,
}

func (m *ClusteringMethod) Set(s string) error {
	if method, ok := ParseClusteringMethod[s]; ok {
		*m = method
		return nil
	}
	return fmt.Errorf("%w, \"%s\" is not a valid clustering method", gr.ErrInvalidArgument, s)
}

// Display name of the method
func (m ClusteringMethod) String() string {
	switch m {
	case NeighborJoining:
		return "Neighbor-Joining"
	case UPGMA:
		return "UPGMA"
	default:
		panic(fmt.Errorf("%w, clustering method (%d) does not exist", gr.ErrInternalInconsistency, int(m)))
	}
}

type ConsensusMethod int

const (
	Greedy ConsensusMethod = iota
	MRCAC
)

var ParseConsensusMethod = map[string]ConsensusMethod{
	"greedy": Greedy,
	"mrcac":  MRCAC,
}

func (m *ConsensusMethod) Set(s string) error {
	if method, ok := ParseConsensusMethod[s]; ok {
		*m = method
		return nil
	}
	return fmt.Errorf("%w, \"%s\" is not a valid consensus method", gr.ErrInvalidArgument, s)
}

func (m ConsensusMethod) String() string {
	switch m {
	case Greedy:
		return "greedy"
	case MRCAC:
		return "MRCAC"
	default:
		panic(fmt.Errorf("%w, consensus method (%d) does not exist", gr.ErrInternalInconsistency, int(m)))
	}
}

// True if the method produces rooted trees
func IsRootedMethod(method ClusteringMethod) bool {
	switch method {
	case NeighborJoining:
		return false
	case UPGMA:
		return true
	default:
		panic(fmt.Errorf("%w, clustering method (%d) does not exist", gr.ErrInternalInconsistency, int(method)))
	}
}

// Returns a clustering builder for the matrix. The matrix is validated here
// so malformed input fails before any work is done.
func NewClusteringBuilder(method ClusteringMethod, dm distance.Lookup) (cluster.Builder, error) {
	if dm == nil {
		return nil, fmt.Errorf("%w, no distance matrix", gr.ErrInvalidArgument)
	}
	if err := distance.Validate(dm); err != nil {
		return nil, err
	}
	switch method {
	case NeighborJoining:
		return cluster.NewNeighborJoining(dm), nil
	case UPGMA:
		return cluster.NewUPGMA(dm), nil
	default:
		return nil, fmt.Errorf("%w, clustering method (%d) does not exist", gr.ErrInternalInconsistency, int(method))
	}
}

// Returns a consensus builder for unrooted trees. Only greedy consensus is
// defined for unrooted input. An empty outgroup leaves the result unrooted.
func NewUnrootedConsensusBuilder(method ConsensusMethod, trees []*tree.Tree, outgroup string, threshold float64) (consensus.Builder, error) {
	if err := gr.CheckThreshold(threshold); err != nil {
		return nil, err
	}
	switch method {
	case Greedy:
		return nonNil(consensus.NewGreedyUnrooted(trees, outgroup, threshold))
	case MRCAC:
		return nil, fmt.Errorf("%w, %s consensus requires rooted trees", gr.ErrInvalidArgument, method)
	default:
		return nil, fmt.Errorf("%w, consensus method (%d) does not exist", gr.ErrInternalInconsistency, int(method))
	}
}

func NewRootedConsensusBuilder(method ConsensusMethod, trees []*tree.Tree, threshold float64) (consensus.Builder, error) {
	if err := gr.CheckThreshold(threshold); err != nil {
		return nil, err
	}
	switch method {
	case Greedy:
		return nonNil(consensus.NewGreedyRooted(trees, threshold))
	case MRCAC:
		return nonNil(consensus.NewMRCAC(trees, threshold))
	default:
		return nil, fmt.Errorf("%w, consensus method (%d) does not exist", gr.ErrInternalInconsistency, int(method))
	}
}

// Keeps a failed constructor from returning a non-nil interface holding a nil
// pointer
func nonNil[B consensus.Builder](b B, err error) (consensus.Builder, error) {
	if err != nil {
		return nil, err
	}
	return b, nil
}
