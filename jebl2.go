/*
JEBL2 builds phylogenetic trees from a distance matrix (Neighbor-Joining,
UPGMA) or summarizes a set of trees as a consensus tree (greedy, MRCAC).

usage: jebl2 [ -m <method> | -f <format> | -t <threshold> | -g <outgroup> | -r | -p <prefix> | -n <nprocs> | -h | -v ] <command> <input>

commands:

	cluster		builds a tree from a PHYLIP distance matrix
	consensus	builds the consensus of a set of trees

positional arguments:

	<input>	distance matrix (cluster) or tree file (consensus)

flags:

	-f format
	  	tree file format [ newick | nexus ] (default "newick")
	-g outgroup
	  	outgroup taxon used to root unrooted consensus
	-h	prints this message and exits
	-m method
	  	nj | upgma (cluster, default nj); greedy | mrcac (consensus, default greedy)
	-n int
	  	number of parallel processes
	-p prefix
	  	write clade supports to <prefix>.csv and support plot to <prefix>.png
	-r	build rooted consensus (input trees must be rooted)
	-t threshold
	  	minimum support of consensus clades [0, 1] (default 0.5)
	-v	prints version number and exits

examples:

	  cluster command example:
		jebl2 -m upgma cluster distances.phy > tree.nwk 2> log.txt

	  consensus command example:
		jebl2 -t 0.5 -p support consensus trees.nwk > consensus.nwk 2> log.txt
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/evolbioinfo/gotree/tree"

	"github.com/trainrun/jebl2/internal/build"
	"github.com/trainrun/jebl2/internal/consensus"
	gr "github.com/trainrun/jebl2/internal/graphs"
	pr "github.com/trainrun/jebl2/internal/prep"
)

const (
	Version    = "v0.1.0"
	ErrMessage = "JEBL2 encountered an error ::"

	Cluster Command = iota
	Consensus

	progressUpdates = 10
)

type Command int

var parseCommand = map[string]Command{
	"cluster":   Cluster,
	"consensus": Consensus,
}

type args struct {
	command    Command
	clustering build.ClusteringMethod
	consensus  build.ConsensusMethod
	format     pr.Format // tree file format
	inputFile  string    // distance matrix or trees
	threshold  float64   // consensus support threshold
	outgroup   string    // outgroup for unrooted consensus
	rooted     bool      // rooted consensus
	prefix     string    // output prefix for csv and plot
	nprocs     int       // number of parallel processes
}

func setNProcs(nprocs int) int {
	maxProcs := runtime.GOMAXPROCS(0)
	switch {
	case nprocs > maxProcs:
		log.Printf("%d is greater than available processes (%d); limit set to %d\n", nprocs, maxProcs, maxProcs)
		return maxProcs
	case nprocs <= 0:
		log.Printf("number of processes not set; defaulting to %d processes\n", maxProcs)
		return maxProcs
	default:
		return nprocs
	}
}

func parseArgs() args {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr,
			"usage: jebl2 [ -m <method> | -f <format> | -t <threshold> | -g <outgroup> | -r | -p <prefix> | -n <nprocs> | -h | -v ] <command> <input>\n",
			"\n",
			"commands:\n\n",
			"  cluster\tbuilds a tree from a PHYLIP distance matrix\n",
			"  consensus\tbuilds the consensus of a set of trees\n",
			"\n",
			"positional arguments:\n\n",
			"  <input>\tdistance matrix (cluster) or tree file (consensus)\n",
			"\n",
			"flags:\n\n",
		)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr,
			"\n",
			"examples:\n\n",
			"  cluster command example:\n",
			"\tjebl2 -m upgma cluster distances.phy > tree.nwk 2> log.txt\n\n",
			"  consensus command example:\n",
			"\tjebl2 -t 0.5 -p support consensus trees.nwk > consensus.nwk 2> log.txt\n",
		)
	}
	format := pr.Newick
	flag.Var(&format, "f", "tree file `format` [ newick | nexus ] (default \"newick\")")
	method := flag.String("m", "", "`method`: nj | upgma (cluster, default nj); greedy | mrcac (consensus, default greedy)")
	threshold := flag.Float64("t", 0.5, "minimum support of consensus clades [0, 1]")
	outgroup := flag.String("g", "", "`outgroup` taxon used to root unrooted consensus")
	rooted := flag.Bool("r", false, "build rooted consensus (input trees must be rooted)")
	prefix := flag.String("p", "", "write clade supports to <prefix>.csv and support plot to <prefix>.png")
	help := flag.Bool("h", false, "prints this message and exits")
	ver := flag.Bool("v", false, "prints version number and exits")
	nprocs := flag.Int("n", 0, "number of parallel processes")
	flag.Parse()
	if *help {
		flag.Usage()
		os.Exit(0)
	}
	if *ver {
		fmt.Printf("JEBL2 version %s\n", Version)
		os.Exit(0)
	}
	if flag.NArg() != 2 {
		parserError("two positional arguments required: <command> <input>")
	}
	cmd, ok := parseCommand[flag.Arg(0)]
	if !ok {
		parserError(fmt.Sprintf("\"%s\" is not a valid command: either \"cluster\" or \"consensus\" required", flag.Arg(0)))
	}
	a := args{
		command:    cmd,
		clustering: build.NeighborJoining,
		consensus:  build.Greedy,
		format:     format,
		inputFile:  flag.Arg(1),
		threshold:  *threshold,
		outgroup:   *outgroup,
		rooted:     *rooted,
		prefix:     *prefix,
		nprocs:     setNProcs(*nprocs),
	}
	if *method != "" {
		var err error
		switch cmd {
		case Cluster:
			err = a.clustering.Set(*method)
		case Consensus:
			err = a.consensus.Set(*method)
		}
		if err != nil {
			parserError(err.Error())
		}
	}
	if err := gr.CheckThreshold(a.threshold); err != nil {
		parserError(err.Error())
	}
	if a.rooted && a.outgroup != "" {
		parserError("-g is only used for unrooted consensus; drop -r or -g")
	}
	return a
}

// prints message, usage, and exits (status code 1)
func parserError(message string) {
	fmt.Fprintln(os.Stderr, message)
	flag.Usage()
	os.Exit(1)
}

// Logs build progress roughly every tenth of the way
func logProgress(step, total int) bool {
	every := max(total/progressUpdates, 1)
	if step%every == 0 || step == total {
		log.Printf("step %d of %d", step, total)
	}
	return true
}

func runCluster(a args) (*tree.Tree, error) {
	log.Printf("reading distance matrix %s", a.inputFile)
	dm, err := pr.ReadDistanceFile(a.inputFile)
	if err != nil {
		return nil, err
	}
	b, err := build.NewClusteringBuilder(a.clustering, dm)
	if err != nil {
		return nil, err
	}
	log.Printf("building %s tree over %d taxa", a.clustering, dm.Len())
	return b.Build(logProgress)
}

func runConsensus(a args) (*tree.Tree, error) {
	log.Printf("reading trees %s", a.inputFile)
	input, err := pr.ReadTreesFile(a.inputFile, a.format)
	if err != nil {
		return nil, err
	}
	if err := pr.PrepareTrees(input.Trees, input.Names, a.rooted, a.nprocs); err != nil {
		return nil, err
	}
	var b consensus.Builder
	if a.rooted {
		b, err = build.NewRootedConsensusBuilder(a.consensus, input.Trees, a.threshold)
	} else {
		b, err = build.NewUnrootedConsensusBuilder(a.consensus, input.Trees, a.outgroup, a.threshold)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("building %s consensus of %d trees (threshold %g)", a.consensus, len(input.Trees), a.threshold)
	tre, err := b.Build(logProgress)
	if err != nil {
		return nil, err
	}
	if a.prefix != "" {
		if err := writeSupports(tre, b.Attributes(), b.Tally(), a.prefix); err != nil {
			return nil, err
		}
	}
	return tre, nil
}

func writeSupports(tre *tree.Tree, attrs *gr.Attributes, tally []float64, prefix string) (err error) {
	csvFile := fmt.Sprintf("%s.csv", prefix)
	log.Printf("writing clade supports to %s", csvFile)
	f, err := os.Create(csvFile)
	if err != nil {
		return fmt.Errorf("%w, %s", pr.ErrWritingFile, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("%w, %s", pr.ErrWritingFile, cerr)
		}
	}()
	if err = pr.WriteCladeSupportsCSV(tre, attrs, f); err != nil {
		return err
	}
	if len(tally) == 0 {
		log.Println("no candidate clades; skipping support plot")
		return nil
	}
	log.Printf("writing support plot to %s.png", prefix)
	return pr.WriteSupportLineplot(tally, prefix)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("JEBL2 version %s", Version)
	args := parseArgs()
	var tre *tree.Tree
	var err error
	switch args.command {
	case Cluster:
		log.Println("running cluster...")
		tre, err = runCluster(args)
	case Consensus:
		log.Println("running consensus...")
		tre, err = runConsensus(args)
	default:
		panic(fmt.Sprintf("invalid command (%d)", args.command))
	}
	if err != nil {
		log.Fatalf("%s %s\n", ErrMessage, err)
	}
	fmt.Println(tre.Newick())
}
