// gcodeinfo показывает, как сервис увидит gcode файл: 8.3 имя, метаданные слайсера
// и индекс прогресса. С флагом --preview сохраняет файл в том виде, в котором он уйдет на принтер.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/iwtcode/shuiService/internal/domain/models"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
	"github.com/iwtcode/shuiService/internal/services/storage"
)

var (
	previewOut string
	asJSON     bool
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gcodeinfo <file.gcode>",
	Short: "Inspect a gcode file the way the SHUI service indexes it",
	Long: `Inspect a gcode file the way the SHUI service indexes it.

Examples:
  gcodeinfo benchy.gcode
  gcodeinfo --json benchy.gcode
  gcodeinfo --preview out.gcode benchy.gcode`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.Flags().StringVarP(&previewOut, "preview", "p", "", "write the preprocessed file to this path")
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log parser warnings")
}

// report - то, что сервис сохраняет о файле при загрузке.
type report struct {
	File        string              `json:"file"`
	ShortName   string              `json:"short_name"`
	ContentHash string              `json:"content_hash"`
	Metadata    models.FileMetadata `json:"metadata"`
	Runtime     models.RuntimeIndex `json:"runtime"`
	Upload      []byte              `json:"-"`
}

func inspect(name string, content []byte, logger *logging.Logger) (report, error) {
	meta := storage.ParseMetadata(content, logger)
	upload, err := storage.PreprocessGCode(content, &meta)
	if err != nil {
		return report{}, err
	}
	return report{
		File:        name,
		ShortName:   storage.ConvertTo83(name, 0),
		ContentHash: storage.ContentHash(content),
		Metadata:    meta,
		Runtime:     storage.ParseRuntimeIndex(upload, logger),
		Upload:      upload,
	}, nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	logger := logging.Nop()
	if verbose {
		logger = logging.NewLogger(&logging.Config{Enabled: true, Level: "DEBUG"}, "GCODEINFO")
	}

	r, err := inspect(filepath.Base(path), content, logger)
	if err != nil {
		return err
	}

	if previewOut != "" {
		if err := os.WriteFile(previewOut, r.Upload, 0o644); err != nil {
			return fmt.Errorf("write preview: %w", err)
		}
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	printReport(cmd.OutOrStdout(), r)
	return nil
}

func printReport(w io.Writer, r report) {
	m := r.Metadata
	fmt.Fprintf(w, "File:           %s\n", r.File)
	fmt.Fprintf(w, "8.3 name:       %s\n", r.ShortName)
	fmt.Fprintf(w, "Content hash:   %s\n", r.ContentHash)
	fmt.Fprintf(w, "Size:           %d bytes (%d on printer)\n", m.BytesSize, len(r.Upload))
	fmt.Fprintf(w, "Print time:     %s\n", m.EstimatedPrintTime)
	fmt.Fprintf(w, "Layers:         %d\n", m.Layers)
	fmt.Fprintf(w, "Height:         %.2f mm\n", m.Height)
	fmt.Fprintf(w, "Nozzle:         %.2f mm\n", m.NozzleDiameter)
	fmt.Fprintf(w, "Supports:       %t\n", m.EnableSupports)
	fmt.Fprintf(w, "Tool changes:   %d\n", m.ToolChanges)
	fmt.Fprintf(w, "Objects:        %d\n", m.Objects)
	for _, p := range m.Previews {
		fmt.Fprintf(w, "Preview:        %dx%d %s\n", p.Width, p.Height, p.Format)
	}
	fmt.Fprintf(w, "Progress marks: %d\n", r.Runtime.Len())
}
