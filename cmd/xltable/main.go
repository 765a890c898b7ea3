// Command xltable reads one sheet of an Excel workbook as a header-keyed table.
package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ukaji3/xltable-go/internal/server"
	"github.com/ukaji3/xltable-go/pkg/xltable"
	"github.com/ukaji3/xltable-go/pkg/xltable/models"
	"github.com/ukaji3/xltable-go/pkg/xltable/output"
)

var (
	columns      int
	sheet        int
	outputPath   string
	pretty       bool
	outputFormat string
	encoding     string
	inputFormat  string
	verbose      bool

	serveAddr    string
	serveColumns int
	serveSheet   int
)

var rootCmd = &cobra.Command{
	Use:   "xltable <file>",
	Short: "Read one sheet of an Excel workbook as a table",
	Long: `xltable reads the leftmost columns of one sheet of an xlsx or xls workbook.
Row 1 is the header; every other cell is named after its header column.
Values are rendered the way the workbook displays them.`,
	Args:          cobra.ExactArgs(1),
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve table reads over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the table output",
	Args:  cobra.NoArgs,
	RunE:  runSchema,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log debug output to stderr")

	rootCmd.Flags().IntVarP(&columns, "columns", "c", 0, "Number of leftmost columns to read (required)")
	rootCmd.Flags().IntVarP(&sheet, "sheet", "s", 1, "1-based sheet number")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	rootCmd.Flags().StringVar(&outputFormat, "format", "json", "Output format: json or csv")
	rootCmd.Flags().StringVar(&encoding, "encoding", "", "CSV output encoding, e.g. shift_jis (default: utf-8)")
	rootCmd.Flags().StringVar(&inputFormat, "input-format", "auto", "Input format: auto, xlsx or xls")
	_ = rootCmd.MarkFlagRequired("columns")

	defaults := server.DefaultConfig()
	serveCmd.Flags().StringVar(&serveAddr, "addr", defaults.Addr, "Listen address")
	serveCmd.Flags().IntVar(&serveColumns, "columns", defaults.Columns, "Default number of columns per request")
	serveCmd.Flags().IntVar(&serveSheet, "sheet", defaults.Sheet, "Default 1-based sheet per request")

	rootCmd.AddCommand(serveCmd, schemaCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func run(cmd *cobra.Command, args []string) error {
	format, err := xltable.ParseFormat(inputFormat)
	if err != nil {
		return err
	}
	if outputFormat != "json" && outputFormat != "csv" {
		return fmt.Errorf("unknown output format %q", outputFormat)
	}

	opts := xltable.DefaultOptions()
	opts.Columns = columns
	opts.Sheet = sheet
	opts.Format = format
	opts.Logger = newLogger(cmd.ErrOrStderr(), verbose)

	table, readErr := xltable.Read(args[0], opts)
	if table == nil {
		return readErr
	}

	var buf bytes.Buffer
	if err := render(&buf, table); err != nil {
		return err
	}
	if outputPath != "" {
		if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
			return err
		}
	} else if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
		return err
	}
	return readErr
}

func render(w io.Writer, table *models.Table) error {
	if outputFormat == "csv" {
		return output.WriteCSV(w, table, encoding)
	}
	return output.WriteJSON(w, table, pretty)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := server.DefaultConfig()
	cfg.Addr = serveAddr
	cfg.Columns = serveColumns
	cfg.Sheet = serveSheet

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return server.Run(cfg, log)
}

func runSchema(cmd *cobra.Command, args []string) error {
	data, err := output.SchemaJSON()
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
