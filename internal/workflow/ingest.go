package workflow

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/elayon/psiq/internal/locale"
	"github.com/elayon/psiq/internal/logging"
	"github.com/elayon/psiq/internal/report"
)

// Ingest reads an anonymized report and prints its summary and cards.
type Ingest struct {
	Path   string // "-" reads In
	In     io.Reader
	Out    io.Writer
	Format *report.Format // nil picks by file extension
	Locale locale.Locale
}

func (i *Ingest) Kind() Kind { return KindReportIngest }

// Run returns a *report.MalformedError for documents that are not a
// valid report.
func (i *Ingest) Run(ctx context.Context) error {
	var (
		data []byte
		err  error
	)
	if i.Path == "-" {
		data, err = io.ReadAll(i.In)
	} else {
		data, err = os.ReadFile(i.Path)
	}
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	f := report.FormatForPath(i.Path)
	if i.Format != nil {
		f = *i.Format
	}
	r, err := report.Decode(data, f)
	if err != nil {
		return err
	}
	logging.DisplayReport(i.Out, r, i.Locale)
	return nil
}
