package prep

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log"
	"math"
	"os"
	"strconv"

	"github.com/evolbioinfo/gotree/io/newick"
	"github.com/evolbioinfo/gotree/io/nexus"
	"github.com/evolbioinfo/gotree/tree"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/trainrun/jebl2/internal/distance"
	gr "github.com/trainrun/jebl2/internal/graphs"
)

var (
	ErrInvalidFile   = errors.New("invalid file")
	ErrInvalidFormat = errors.New("invalid format")
	ErrWritingFile   = errors.New("error writing file")

	plotLineColor   = color.RGBA{R: 37, G: 150, B: 190, A: 255}
	plotMarkerShape = draw.CircleGlyph{}
)

type Format int

const (
	Newick Format = iota
	Nexus

	plotH = 4 * vg.Inch
	plotW = 6 * vg.Inch

	maxTicks = 10
)

var ParseFormat = map[string]Format{
	"newick": Newick,
	"nexus":  Nexus,
}

func (f *Format) Set(s string) error {
	if format, ok := ParseFormat[s]; ok {
		*f = format
		return nil
	}
	return fmt.Errorf("\"%s\" is not a valid tree file format", s)
}

func (f Format) String() string {
	for s, fr := range ParseFormat {
		if fr == f {
			return s
		}
	}
	panic(fmt.Sprintf("format (%d) does not exist", f))
}

type InputTrees struct {
	Trees []*tree.Tree // input trees
	Names []string     // tree names (line number for newick files)
}

// gotree can be noisy and lead to thousands of log messages while parsing
func quietly[T any](read func() (T, error)) (T, error) {
	flags := log.Flags()
	lout := log.Writer()
	log.SetOutput(io.Discard)
	defer func() {
		log.SetOutput(lout)
		log.SetFlags(flags)
	}()
	return read()
}

// Reads trees from a newick (one tree per line) or nexus file. Returns an
// error if the file holds no trees or a tree cannot be parsed.
func ReadTreesFile(treesFile string, format Format) (*InputTrees, error) {
	return quietly(func() (*InputTrees, error) { return readTreesFile(treesFile, format) })
}

func readTreesFile(treesFile string, format Format) (*InputTrees, error) {
	file, err := os.Open(treesFile)
	if err != nil {
		return nil, fmt.Errorf("error opening %s, %w", treesFile, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(fmt.Sprintf("could not close file %s, %s", treesFile, err))
		}
	}()
	trees := make([]*tree.Tree, 0)
	names := make([]string, 0)
	switch format {
	case Newick:
		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), math.MaxInt32)
		for i := 1; scanner.Scan(); i++ {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			tre, err := newick.NewParser(bytes.NewReader(line)).Parse()
			if err != nil {
				return nil, fmt.Errorf("%w, error reading tree on line %d in %s: %s",
					ErrInvalidFormat, i, treesFile, err.Error())
			}
			trees = append(trees, tre)
			names = append(names, strconv.Itoa(i))
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("%w, error reading %s: %s", ErrInvalidFile, treesFile, err.Error())
		}
	case Nexus:
		nex, err := nexus.NewParser(file).Parse()
		if err != nil {
			return nil, fmt.Errorf("%w, error reading nexus file %s: %s",
				ErrInvalidFormat, treesFile, err.Error())
		}
		nex.IterateTrees(func(s string, t *tree.Tree) {
			trees = append(trees, t)
			names = append(names, s)
		})
	default:
		return nil, fmt.Errorf("%w, not a valid file format", ErrInvalidFile)
	}
	if len(trees) < 1 {
		return nil, fmt.Errorf("%w, no trees in %s", ErrInvalidFile, treesFile)
	}
	return &InputTrees{Trees: trees, Names: names}, nil
}

// Reads a square PHYLIP distance matrix file
func ReadDistanceFile(matrixFile string) (*distance.Matrix, error) {
	file, err := os.Open(matrixFile)
	if err != nil {
		return nil, fmt.Errorf("error opening %s, %w", matrixFile, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(fmt.Sprintf("could not close file %s, %s", matrixFile, err))
		}
	}()
	dm, err := ParsePhylip(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", matrixFile, err)
	}
	return dm, nil
}

// Parses a square PHYLIP distance matrix: the number of taxa, then one row
// per taxon holding its name followed by its distances. Whitespace, including
// line breaks inside a row, is not significant.
func ParsePhylip(r io.Reader) (*distance.Matrix, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	next := func(what string) (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("%w, %s", ErrInvalidFile, err.Error())
			}
			return "", fmt.Errorf("%w, unexpected end of matrix, expected %s", ErrInvalidFormat, what)
		}
		return scanner.Text(), nil
	}
	tok, err := next("number of taxa")
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 1 {
		return nil, fmt.Errorf("%w, \"%s\" is not a valid number of taxa", ErrInvalidFormat, tok)
	}
	taxa := make([]string, n)
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		if taxa[i], err = next(fmt.Sprintf("name of taxon %d", i+1)); err != nil {
			return nil, err
		}
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			tok, err := next(fmt.Sprintf("distance %d of %s", j+1, taxa[i]))
			if err != nil {
				return nil, err
			}
			if rows[i][j], err = strconv.ParseFloat(tok, 64); err != nil {
				return nil, fmt.Errorf("%w, \"%s\" is not a valid distance (row %s, column %d)",
					ErrInvalidFormat, tok, taxa[i], j+1)
			}
		}
	}
	if scanner.Scan() {
		return nil, fmt.Errorf("%w, unexpected \"%s\" after %d rows", ErrInvalidFormat, scanner.Text(), n)
	}
	return distance.NewMatrix(taxa, rows)
}

// Write csv table of the consensus tree's clades to writer.
//
// There are three columns: "Clade", "Support", "Count". Count is empty for
// nodes that do not come from the input trees (e.g., the outgroup's sister).
func WriteCladeSupportsCSV(tre *tree.Tree, attrs *gr.Attributes, w io.Writer) (err error) {
	taxa, err := gr.TreeTaxa(tre)
	if err != nil {
		return err
	}
	td, err := gr.MakeTreeData(tre, taxa)
	if err != nil {
		return err
	}
	data := [][]string{{"Clade", "Support", "Count"}}
	tre.PreOrder(func(cur, prev *tree.Node, e *tree.Edge) (keep bool) {
		if e == nil || cur.Tip() {
			return true
		}
		support, count := "", ""
		if e.Support() != tree.NIL_SUPPORT {
			support = strconv.FormatFloat(e.Support(), 'f', -1, 64)
		}
		if c, ok := attrs.Float(cur, gr.CountAttribute); ok {
			count = strconv.FormatFloat(c, 'f', -1, 64)
		}
		data = append(data, []string{td.LeafsetAsString(cur), support, count})
		return true
	})
	writer := csv.NewWriter(w)
	defer func() {
		writer.Flush()
		if err == nil {
			err = writer.Error()
		} else if writer.Error() != nil {
			log.Printf("error when flushing output csv, %s", writer.Error())
		}
	}()
	if err = writer.WriteAll(data); err != nil {
		err = fmt.Errorf("%w, %s", ErrWritingFile, err)
		return
	}
	return
}

// Plots the support profile of a consensus build (one point per candidate
// clade or merge, in build order) to <prefix>.png
func WriteSupportLineplot(tally []float64, prefix string) error {
	p := plot.New()
	p.X.Label.Text = "Step"
	p.Y.Label.Text = "Support"
	p.X.Min = 1
	p.X.Max = float64(max(len(tally), 1))
	p.X.Tick.Marker = plot.TickerFunc(func(_, max float64) []plot.Tick {
		step := 1
		if int(max) > maxTicks {
			step = int(math.Ceil(max / maxTicks))
		}
		ticks := make([]plot.Tick, 0, int(max)/step+2)
		for i := 1; i <= int(max); i++ {
			if i%step == 0 || i == 1 {
				ticks = append(ticks, plot.Tick{Value: float64(i), Label: strconv.Itoa(i)})
			} else {
				ticks = append(ticks, plot.Tick{Value: float64(i)})
			}
		}
		return ticks
	})
	p.Y.Min = 0
	p.Y.Max = 1
	pts := make(plotter.XYs, len(tally))
	for i, support := range tally {
		pts[i].X = float64(i + 1)
		pts[i].Y = support
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Color = plotLineColor
	line.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	points.Color = plotLineColor
	points.Shape = plotMarkerShape
	points.Radius = vg.Points(3)
	p.Add(line, points)
	if err := p.Save(plotW, plotH, fmt.Sprintf("%s.png", prefix)); err != nil {
		return fmt.Errorf("%w, %s", ErrWritingFile, err)
	}
	return nil
}
