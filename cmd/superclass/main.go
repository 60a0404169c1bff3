// Package main provides the superclass CLI.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/superclass/blob"
	"github.com/born-ml/superclass/config"
	"github.com/born-ml/superclass/layers"
	"github.com/born-ml/superclass/mapping"
	"github.com/born-ml/superclass/net"
)

const version = "v0.1.0-dev"

func main() {
	log.SetFlags(0)
	log.SetPrefix("superclass: ")

	if len(os.Args) < 2 {
		usage(os.Stdout)
		return
	}
	if err := run(os.Args[1], os.Args[2:], os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "superclass - label hierarchy layers")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version                               Show version")
	fmt.Fprintln(w, "  types                                 List layer types")
	fmt.Fprintln(w, "  inspect   -mapping FILE [-lenient]    Print groups and the fine to coarse table")
	fmt.Fprintln(w, "  remap     -mapping FILE LABEL...      Print the coarse label of each fine label")
	fmt.Fprintln(w, "  aggregate -mapping FILE               Sum rows of fine scores read from stdin")
	fmt.Fprintln(w, "  run       -net FILE -input NAME=SHAPE:VALUES...")
	fmt.Fprintln(w, "                                        Run a net forward and print every blob")
}

func run(cmd string, args []string, stdin io.Reader, stdout io.Writer) error {
	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "superclass %s\n", version)
		return nil
	case "types":
		for _, t := range layers.NewRegistry().Types() {
			fmt.Fprintln(stdout, t)
		}
		return nil
	case "inspect":
		return inspect(args, stdout)
	case "remap":
		return remap(args, stdout)
	case "aggregate":
		return aggregate(args, stdin, stdout)
	case "run":
		return runNet(args, stdout)
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		return errors.Errorf("unknown command %q", cmd)
	}
}

func mappingFlags(name string) (*flag.FlagSet, *string, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("mapping", "", "mapping file")
	lenient := fs.Bool("lenient", false, "skip malformed tokens")
	return fs, path, lenient
}

func loadMapping(path string, lenient bool) (*mapping.Table, error) {
	return mapping.Load(path,
		mapping.WithLenient(lenient),
		mapping.WithSkipHandler(func(e *mapping.ParseError) {
			log.Printf("skipped: %v", e)
		}),
	)
}

func inspect(args []string, stdout io.Writer) error {
	fs, path, lenient := mappingFlags("inspect")
	if err := fs.Parse(args); err != nil {
		return err
	}
	table, err := loadMapping(*path, *lenient)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "groups: %d\nfine: %d\n", table.NumGroups(), table.NumFine())
	for g, members := range table.Groups() {
		fmt.Fprintf(stdout, "group %d: %s\n", g, joinInts(members))
	}
	for f := 0; f < table.NumFine(); f++ {
		c, err := table.Coarse(f)
		if err != nil {
			fmt.Fprintf(stdout, "%d -> unmapped\n", f)
			continue
		}
		fmt.Fprintf(stdout, "%d -> %d\n", f, c)
	}
	return nil
}

func remap(args []string, stdout io.Writer) error {
	fs, path, lenient := mappingFlags("remap")
	if err := fs.Parse(args); err != nil {
		return err
	}
	table, err := loadMapping(*path, *lenient)
	if err != nil {
		return err
	}

	labels, err := parseFloats(strings.Join(fs.Args(), " "))
	if err != nil {
		return err
	}
	if len(labels) == 0 {
		return errors.New("remap: no labels given")
	}

	layer := layers.NewMapLabelsWithTable(table, config.MapLabelsParameter{})
	in, err := blob.FromSlice(labels, blob.Shape{len(labels)})
	if err != nil {
		return err
	}
	out, err := forwardOnce(layer, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, joinFloats(out.Data()))
	return nil
}

func aggregate(args []string, stdin io.Reader, stdout io.Writer) error {
	fs, path, lenient := mappingFlags("aggregate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	table, err := loadMapping(*path, *lenient)
	if err != nil {
		return err
	}
	layer := layers.NewInferSuperclassesWithTable(table)

	sc := bufio.NewScanner(stdin)
	for line := 1; sc.Scan(); line++ {
		row, err := parseFloats(sc.Text())
		if err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		if len(row) == 0 {
			continue
		}
		in, err := blob.FromSlice(row, blob.Shape{1, len(row)})
		if err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		out, err := forwardOnce(layer, in)
		if err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		fmt.Fprintln(stdout, joinFloats(out.Data()))
	}
	return sc.Err()
}

// forwardOnce runs a single-bottom, single-top layer over in.
func forwardOnce(layer layers.Layer, in *blob.Blob) (*blob.Blob, error) {
	bottom := []*blob.Blob{in}
	top := []*blob.Blob{blob.Empty()}
	if err := layer.Setup(bottom, top); err != nil {
		return nil, err
	}
	if err := layer.Reshape(bottom, top); err != nil {
		return nil, err
	}
	if err := layer.Forward(bottom, top); err != nil {
		return nil, err
	}
	return top[0], nil
}

type inputFlags []string

func (f *inputFlags) String() string     { return strings.Join(*f, " ") }
func (f *inputFlags) Set(v string) error { *f = append(*f, v); return nil }

func runNet(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("net", "", "net definition file")
	verbose := fs.Bool("v", false, "log layer setup")
	var inputs inputFlags
	fs.Var(&inputs, "input", "NAME=SHAPE:VALUES, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}

	param, err := config.LoadNet(*path)
	if err != nil {
		return err
	}
	var opts []net.Option
	if *verbose {
		opts = append(opts, net.WithLogger(log.New(os.Stderr, "", 0)))
	}
	n, err := net.New(param, layers.NewRegistry(), opts...)
	if err != nil {
		return err
	}

	for _, in := range inputs {
		name, shape, values, err := parseInput(in)
		if err != nil {
			return err
		}
		if err := n.SetInput(name, values, shape); err != nil {
			return err
		}
	}
	if err := n.Setup(); err != nil {
		return err
	}
	if err := n.Forward(); err != nil {
		return err
	}

	for _, name := range n.BlobNames() {
		b, _ := n.Blob(name)
		fmt.Fprintf(stdout, "%s: %s\n  %s\n", name, b.Shape(), joinFloats(b.Data()))
	}
	return nil
}

// parseInput splits "score=1,3,1,1:0.1,0.7,0.2".
func parseInput(s string) (string, blob.Shape, []float64, error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", nil, nil, errors.Errorf("input %q: want NAME=SHAPE:VALUES", s)
	}
	dims, vals, ok := strings.Cut(rest, ":")
	if !ok {
		return "", nil, nil, errors.Errorf("input %q: want NAME=SHAPE:VALUES", s)
	}

	fdims, err := parseFloats(dims)
	if err != nil {
		return "", nil, nil, errors.Wrapf(err, "input %q shape", name)
	}
	shape := make(blob.Shape, len(fdims))
	for i, d := range fdims {
		shape[i] = int(d)
		if float64(shape[i]) != d {
			return "", nil, nil, errors.Errorf("input %q: dimension %v is not an integer", name, d)
		}
	}
	values, err := parseFloats(vals)
	if err != nil {
		return "", nil, nil, errors.Wrapf(err, "input %q values", name)
	}
	return name, shape, values, nil
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Errorf("invalid number %q", f)
		}
		out = append(out, v)
	}
	return out, nil
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, " ")
}

func joinFloats(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}
