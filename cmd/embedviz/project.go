package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/hupe1980/embedviz"
	"github.com/hupe1980/embedviz/chart"
	"github.com/hupe1980/embedviz/codec"
	"github.com/hupe1980/embedviz/embedding"
	"github.com/spf13/cobra"
)

type compareFlags struct {
	file      string
	reference int
	output    string

	method       string
	dims         int
	perplexity   float64
	iterations   int
	learningRate float64
	seed         int64
	threshold    float64
	archive      bool
}

func (f *compareFlags) bindInput(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Read texts from a file, one per line (- for stdin)")
	cmd.Flags().IntVarP(&f.reference, "reference", "r", 0, "Index of the reference text")
	cmd.Flags().StringVarP(&f.output, "output", "o", "table", "Output format (table, json, chart)")
}

func newProjectCmd(a *app) *cobra.Command {
	var f compareFlags
	cmd := &cobra.Command{
		Use:     "project [texts...]",
		Aliases: []string{"p"},
		Short:   "Embed texts, rank them against a reference and project them with t-SNE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			ex, _, err := a.explorer(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			req, err := f.request(cmd, args)
			if err != nil {
				return err
			}

			p := params(cfg.Projection)
			if cmd.Flags().Changed("dims") {
				p.Dimensions = f.dims
			}
			if f.perplexity != 0 {
				p.Perplexity = f.perplexity
			}
			if f.iterations != 0 {
				p.Iterations = f.iterations
			}
			if f.learningRate != 0 {
				p.LearningRate = f.learningRate
			}
			if f.threshold != 0 {
				p.CostThreshold = f.threshold
			}
			if cmd.Flags().Changed("seed") {
				p.Seed = &f.seed
			}
			req.Params = p
			req.Method = cfg.Projection.Method
			if f.method != "" {
				req.Method = f.method
			}
			req.Archive = f.archive

			report, err := ex.Compare(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), ex, report, f.output)
		},
	}
	f.bindInput(cmd)
	cmd.Flags().StringVarP(&f.method, "method", "m", "", "Projection method")
	cmd.Flags().IntVarP(&f.dims, "dims", "d", 2, "Target dimensionality")
	cmd.Flags().Float64Var(&f.perplexity, "perplexity", 0, "t-SNE perplexity (default 4)")
	cmd.Flags().IntVar(&f.iterations, "iterations", 0, "Optimizer iterations (default 500)")
	cmd.Flags().Float64Var(&f.learningRate, "learning-rate", 0, "Learning rate (default max(n/4, 1))")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Random seed for a reproducible layout")
	cmd.Flags().Float64Var(&f.threshold, "cost-threshold", 0, "Stop once the KL cost drops below this value")
	cmd.Flags().BoolVar(&f.archive, "archive", false, "Save the run to the configured archive")
	return cmd
}

func newSimilarityCmd(a *app) *cobra.Command {
	var f compareFlags
	cmd := &cobra.Command{
		Use:     "similarity [texts...]",
		Aliases: []string{"s"},
		Short:   "Rank texts by cosine similarity to a reference",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			ex, _, err := a.explorer(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			req, err := f.request(cmd, args)
			if err != nil {
				return err
			}
			report, err := ex.Similarity(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), ex, report, f.output)
		},
	}
	f.bindInput(cmd)
	return cmd
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the supported providers and models",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, p := range embedding.Providers() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", p, strings.Join(embedding.Catalog[p], ", "))
			}
		},
	}
}

// request collects texts from args or the --file flag.
func (f *compareFlags) request(cmd *cobra.Command, args []string) (embedviz.Request, error) {
	texts := args
	if f.file != "" {
		if len(args) > 0 {
			return embedviz.Request{}, errors.New("pass texts either as arguments or with --file")
		}
		var r io.Reader = cmd.InOrStdin()
		if f.file != "-" {
			file, err := os.Open(f.file)
			if err != nil {
				return embedviz.Request{}, err
			}
			defer file.Close()
			r = file
		}
		var err error
		if texts, err = readLines(r); err != nil {
			return embedviz.Request{}, err
		}
	}
	return embedviz.Request{Texts: texts, Reference: f.reference}, nil
}

// readLines returns the non-blank lines of r.
func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

func writeReport(w io.Writer, ex *embedviz.Explorer, r *embedviz.Report, format string) error {
	switch format {
	case "json":
		data, err := ex.Encode(r)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "chart":
		if r.Chart == nil {
			return errors.New("no chart: the projection has fewer than two dimensions")
		}
		data, err := r.Chart.Marshal(codec.Default)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "table":
		return writeTable(w, r)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeTable(w io.Writer, r *embedviz.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "reference\t%s\n", chart.Truncate(r.Texts[r.Reference], chart.LabelRunes))
	fmt.Fprintln(tw, "#\tSIMILARITY\tTEXT")
	for i, rk := range r.Ranking {
		fmt.Fprintf(tw, "%d\t%.4f\t%s\n", i+1, rk.Similarity, chart.Truncate(rk.Text, chart.LabelRunes))
	}
	if len(r.Coordinates) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "INDEX\tCOORDINATES\tTEXT")
		for i, c := range r.Coordinates {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", i, formatCoords(c), chart.Truncate(r.Texts[i], chart.LabelRunes))
		}
		fmt.Fprintf(tw, "\ncost %.6f after %d iterations", r.Cost, r.Iterations)
		if r.EarlyStopped {
			fmt.Fprint(tw, " (early stop)")
		}
		fmt.Fprintln(tw)
	}
	if r.ID != "" {
		fmt.Fprintf(tw, "archived as %s\n", r.ID)
	}
	return tw.Flush()
}

func formatCoords(c []float64) string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return strings.Join(parts, " ")
}
