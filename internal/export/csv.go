package export

import (
	"os"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-spreadfetch/internal/logger"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
	"go.uber.org/zap"
)

// CSVWriter buffers wire rows and writes them with a header on Finalize.
type CSVWriter struct {
	rows       []*WireRow
	outputPath string
	logger     *logger.Logger
}

// NewCSVWriter creates a CSVWriter for outputPath.
func NewCSVWriter(outputPath string, log *logger.Logger) DatasetWriter {
	return &CSVWriter{outputPath: outputPath, logger: log.Named("csv")}
}

func (w *CSVWriter) Initialize() error {
	w.rows = w.rows[:0]

	return nil
}

func (w *CSVWriter) Write(r types.MarketRecord) error {
	row := NewWireRow(r)
	w.rows = append(w.rows, &row)

	return nil
}

func (w *CSVWriter) Finalize() (string, error) {
	file, err := os.Create(w.outputPath)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to create %s", w.outputPath)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&w.rows, file); err != nil {
		return "", errors.Wrap(errors.ErrCodeExportFailed, "failed to write csv", err)
	}

	w.logger.Info("Exported csv", zap.String("path", w.outputPath), zap.Int("rows", len(w.rows)))

	return w.outputPath, nil
}

func (w *CSVWriter) Close() error {
	w.rows = nil

	return nil
}

func (w *CSVWriter) GetOutputPath() string {
	return w.outputPath
}
