package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-spreadfetch/internal/logger"
	"github.com/rxtech-lab/argo-spreadfetch/internal/pipeline"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
	"go.uber.org/zap"
)

// Format is an export file format.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

// Exporter writes the final dataset of a run and its metadata into a directory.
type Exporter struct {
	dir     string
	formats []Format
	logger  *logger.Logger
}

// NewExporter creates an Exporter. With no formats it writes parquet only.
func NewExporter(dir string, formats []Format, log *logger.Logger) *Exporter {
	if len(formats) == 0 {
		formats = []Format{FormatParquet}
	}

	return &Exporter{dir: dir, formats: formats, logger: log.Named("export")}
}

// Summary lists the files an export produced.
type Summary struct {
	Branch   string   `json:"branch"`
	Files    []string `json:"files"`
	Metadata string   `json:"metadata"`
}

// Export writes <name>.<format> for each format plus <name>_metadata.json,
// where name is the first contract (and the second for a spread) and run id.
func (e *Exporter) Export(result *pipeline.Result) (Summary, error) {
	branch, ds, ok := result.Final()
	if !ok {
		return Summary{}, errors.New(errors.ErrCodeExportFailed, "no branch produced data")
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return Summary{}, errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to create %s", e.dir)
	}

	base := baseName(result)
	summary := Summary{Branch: branch}

	for _, format := range e.formats {
		path := filepath.Join(e.dir, fmt.Sprintf("%s.%s", base, format))

		var w DatasetWriter
		switch format {
		case FormatParquet:
			w = NewParquetWriter(path, e.logger)
		case FormatCSV:
			w = NewCSVWriter(path, e.logger)
		default:
			return summary, errors.Newf(errors.ErrCodeExportFailed, "unsupported export format %q", format)
		}

		out, err := WriteDataset(w, ds)
		if err != nil {
			return summary, err
		}

		summary.Files = append(summary.Files, out)
	}

	metadata, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return summary, errors.Wrap(errors.ErrCodeExportFailed, "failed to encode metadata", err)
	}

	summary.Metadata = filepath.Join(e.dir, base+"_metadata.json")
	if err := os.WriteFile(summary.Metadata, metadata, 0o644); err != nil {
		return summary, errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to write %s", summary.Metadata)
	}

	e.logger.Info("Export complete",
		zap.String("branch", branch),
		zap.Int("records", ds.Len()),
		zap.Strings("files", summary.Files),
	)

	return summary, nil
}

func baseName(result *pipeline.Result) string {
	name := ""
	for i, c := range result.Metadata.Contracts {
		if i > 0 {
			name += "_"
		}

		name += c.Code()
	}

	if len(result.Metadata.RunID) >= 8 {
		name += "_" + result.Metadata.RunID[:8]
	}

	return name
}
