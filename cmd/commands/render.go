package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"voyage/export"
	"voyage/models"
)

var (
	renderIn       string
	renderOut      string
	renderFormat   string
	renderOverlay  string
	renderHide     []string
	renderShareURL string
)

// NewRenderCommand creates the render command
func NewRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a proposal file to HTML or PDF",
		Long: `Render a proposal stored as YAML or JSON without a server.

Examples:
  # HTML to stdout
  voyagectl render --in proposal.yaml

  # PDF to a file, with the pricing section hidden
  voyagectl render --in proposal.yaml --out proposition-voyage.pdf --hide pricing

  # HTML with a design overlay
  voyagectl render --in proposal.json --overlay overlay.yaml --out proposition-voyage.html`,
		Args: cobra.NoArgs,
		RunE: runRender,
	}

	cmd.Flags().StringVarP(&renderIn, "in", "i", "", "Proposal file (.yaml, .yml or .json)")
	cmd.Flags().StringVarP(&renderOut, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVarP(&renderFormat, "format", "f", "", "html or pdf (default from --out extension, else html)")
	cmd.Flags().StringVar(&renderOverlay, "overlay", "", "Design overlay file, HTML only")
	cmd.Flags().StringSliceVar(&renderHide, "hide", nil, "Section ids to leave out")
	cmd.Flags().StringVar(&renderShareURL, "share-url", "", "Link printed as a QR code in the PDF")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func resolveFormat(format, out string) (string, error) {
	if format == "" {
		if strings.EqualFold(filepath.Ext(out), ".pdf") {
			return "pdf", nil
		}
		return "html", nil
	}
	switch f := strings.ToLower(format); f {
	case "html", "pdf":
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q: use html or pdf", format)
	}
}

// Render writes doc in the given format to w.
func Render(w io.Writer, doc *models.VoyageDocument, format string, overlay *models.DesignOverlay, hidden []string, shareURL string) error {
	if format == "pdf" {
		return export.RenderPDF(doc, w, export.PDFOptions{Hidden: hidden, ShareURL: shareURL})
	}
	out, err := export.RenderHTML(doc, export.Options{Overlay: overlay, Hidden: hidden})
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func runRender(cmd *cobra.Command, args []string) error {
	format, err := resolveFormat(renderFormat, renderOut)
	if err != nil {
		return err
	}
	doc, err := LoadDocument(renderIn)
	if err != nil {
		return fmt.Errorf("failed to load proposal: %w", err)
	}
	var overlay *models.DesignOverlay
	if renderOverlay != "" {
		if overlay, err = LoadOverlay(renderOverlay); err != nil {
			return fmt.Errorf("failed to load overlay: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := Render(&buf, doc, format, overlay, renderHide, renderShareURL); err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}

	if renderOut == "" {
		_, err = cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(renderOut, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %s (%d bytes)\n", renderOut, buf.Len())
	return nil
}
