package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/analysis"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/service"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/textsource"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

func analyzeCmd() *cobra.Command {
	var (
		input    string
		refPath  string
		forcePDF bool
		compact  bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyse one lab report and print the result as JSON",
		Long: "Reads a report from --input (a PDF or plain text file, or - for stdin), " +
			"runs extraction and classification, and prints the composite result.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(bootOpts{dbIfConfigured: refPath == "", logToStderr: true})
			if err != nil {
				return err
			}
			defer a.close()

			data, err := readInput(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}

			format := analysis.InputText
			text := string(data)
			if forcePDF || mimetype.Detect(data).Is(pdfMIME) {
				format = analysis.InputPDF
				text = textsource.PDFBytes(data, a.log)
			}

			source, err := a.referenceSource(refPath)
			if err != nil {
				return err
			}

			// No audit trail here: nothing outlives the command.
			svc := service.NewAnalysisService(source, a.cfg.Extraction, nil, nil, a.metrics, a.log)

			result, err := svc.Analyze(cmd.Context(), &analysis.AnalyzeCommand{
				Text:    text,
				Format:  format,
				Subject: "cli",
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(struct {
				*analysis.Analysis
				FileLabel string `json:"file_label"`
			}{result, result.FileLabel()})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "report file to analyse, - for stdin")
	cmd.Flags().StringVar(&refPath, "reference", "", "reference CSV overriding the configured source")
	cmd.Flags().BoolVar(&forcePDF, "pdf", false, "treat the input as PDF regardless of its content")
	cmd.Flags().BoolVar(&compact, "compact", false, "print JSON on one line")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

const pdfMIME = "application/pdf"

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return data, nil
}
