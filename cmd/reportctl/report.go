package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/okian/reportcard/internal/adapters/sheets"
	app "github.com/okian/reportcard/internal/app"
	"github.com/okian/reportcard/pkg/logger"
	"github.com/spf13/cobra"
)

var errNoSource = errors.New("one of --xlsx or --url is required")

// sourceOptions selects where a class sheet is read from.
type sourceOptions struct {
	class string
	xlsx  string
	url   string
}

func (o *sourceOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.class, "class", "c", "", "Class name, e.g. 5A (required)")
	cmd.Flags().StringVar(&o.xlsx, "xlsx", "", "Workbook with one sheet per class")
	cmd.Flags().StringVar(&o.url, "url", "", "Published CSV or HTML sheet of the class")
	cmd.MarkFlagsMutuallyExclusive("xlsx", "url")
	if err := cmd.MarkFlagRequired("class"); err != nil {
		panic(fmt.Sprintf("failed to mark class flag as required: %v", err))
	}
}

func (o *sourceOptions) source(l logger.Logger) (sheets.Source, error) {
	switch {
	case o.xlsx != "":
		return sheets.NewXLSXSource(o.xlsx, l.Named("xlsx")), nil
	case o.url != "":
		return sheets.NewHTTPSource(map[string]string{o.class: o.url}, sheets.WithHTTPLogger(l.Named("sheets"))), nil
	default:
		return nil, errNoSource
	}
}

type reportOptions struct {
	sourceOptions
	roll      string
	chartsDir string
	width     int
	height    int
}

func newReportCmd() *cobra.Command {
	opts := &reportOptions{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a student's progress report as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, opts)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVarP(&opts.roll, "roll", "r", "", "Roll number (required)")
	cmd.Flags().StringVar(&opts.chartsDir, "charts", "", "Also write one PNG per subject into this directory")
	cmd.Flags().IntVar(&opts.width, "width", 0, "Chart width in pixels (default 800)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "Chart height in pixels (default 400)")
	if err := cmd.MarkFlagRequired("roll"); err != nil {
		panic(fmt.Sprintf("failed to mark roll flag as required: %v", err))
	}
	return cmd
}

func runReport(cmd *cobra.Command, opts *reportOptions) error {
	ctx := cmd.Context()
	log := logger.Named("report")

	src, err := opts.source(log)
	if err != nil {
		return err
	}
	svc := app.New(app.WithSource(src), app.WithLogger(log))

	rep, err := svc.Report(ctx, opts.class, opts.roll)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if opts.chartsDir == "" {
		return nil
	}
	charts, err := svc.ChartsPNG(ctx, opts.class, opts.roll, opts.width, opts.height)
	if err != nil {
		return fmt.Errorf("failed to render charts: %w", err)
	}
	if err := os.MkdirAll(opts.chartsDir, outputDirPerm); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, subject := range rep.SubjectNames() {
		path := filepath.Join(opts.chartsDir, subject+".png")
		if err := os.WriteFile(path, charts[subject], outputFilePerm); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		log.Info(ctx, "chart written",
			logger.String("subject", subject),
			logger.String("path", path),
			logger.String("size", humanize.Bytes(uint64(len(charts[subject])))))
	}
	return nil
}

func newStudentsCmd() *cobra.Command {
	opts := &sourceOptions{}
	cmd := &cobra.Command{
		Use:   "students",
		Short: "List the students of a class",
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := opts.source(logger.Named("students"))
			if err != nil {
				return err
			}
			students, err := app.New(app.WithSource(src)).Students(cmd.Context(), opts.class)
			if err != nil {
				return fmt.Errorf("failed to list students: %w", err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ROLL\tNAME")
			for _, s := range students {
				fmt.Fprintf(tw, "%s\t%s\n", s.RollNumber, s.Name)
			}
			return tw.Flush()
		},
	}
	opts.bind(cmd)
	return cmd
}
