package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/okian/reportcard/internal/domain/chart"
	"github.com/okian/reportcard/pkg/logger"
	"github.com/spf13/cobra"
)

const (
	outputDirPerm  = 0o755
	outputFilePerm = 0o644
)

type renderOptions struct {
	input  string
	outDir string
	width  int
	height int
}

func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render progress charts from a series file",
		Long: "Reads a JSON object mapping series names to {\"labels\": [...], \"values\": [...]} " +
			"and writes one PNG per series named after its surface id.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.input, "in", "i", "", "Path to the series JSON file (required)")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "Directory the PNG files are written to")
	cmd.Flags().IntVar(&opts.width, "width", 800, "Chart width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 400, "Chart height in pixels")
	if err := cmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}
	return cmd
}

func runRender(cmd *cobra.Command, opts *renderOptions) error {
	ctx := cmd.Context()
	log := logger.Named("render")

	content, err := os.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("failed to read series file: %w", err)
	}
	var series chart.SeriesMap
	if err := json.Unmarshal(content, &series); err != nil {
		return fmt.Errorf("failed to unmarshal series JSON: %w", err)
	}
	if err := os.MkdirAll(opts.outDir, outputDirPerm); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	renderer := chart.NewRenderer(chart.WithLogger(log))
	page := chart.NewPage()
	for _, name := range series.Names() {
		id := renderer.SurfaceID(name)
		page.AddSurface(id, opts.width, opts.height)
		page.AddElement(renderer.LoadingID(id))
	}
	renderer.InitializeAll(ctx, page, series)

	for _, name := range series.Names() {
		id := renderer.SurfaceID(name)
		path := filepath.Join(opts.outDir, id+".png")
		n, err := writeSurface(page, id, path)
		if err != nil {
			return err
		}
		log.Info(ctx, "chart written",
			logger.String("series", name),
			logger.String("path", path),
			logger.String("size", humanize.Bytes(uint64(n))))
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}

func writeSurface(page *chart.Page, id, path string) (int, error) {
	surface, ok := page.Surface(id)
	if !ok {
		return 0, fmt.Errorf("surface %s: %w", id, chart.ErrSurfaceNotFound)
	}
	var buf bytes.Buffer
	if err := surface.EncodePNG(&buf); err != nil {
		return 0, fmt.Errorf("encode %s: %w", id, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), outputFilePerm); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return buf.Len(), nil
}
