package pipeline

import (
	"context"
	"io"
	"iter"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/insightdelivered/card-statement-extractor/internal/models"
	"github.com/insightdelivered/card-statement-extractor/internal/parser"
)

// Pipeline runs documents through extraction, merge, dedup, sort and
// aggregation.
type Pipeline struct {
	extractor *parser.Extractor
	logger    *log.Logger
}

// New returns a Pipeline. A nil logger discards output.
func New(logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pipeline{
		extractor: parser.New(logger),
		logger:    logger,
	}
}

// Process is ProcessSeq over a slice.
func (p *Pipeline) Process(ctx context.Context, docs []models.Document, opts models.Options) (*models.Result, error) {
	return p.ProcessSeq(ctx, slices.Values(docs), opts)
}

// ProcessSeq handles documents one at a time in the order they are yielded.
// A document without movements is reported and processing continues. When
// ctx is cancelled no further document is pulled and the context error is
// returned together with the result built from the documents already seen.
func (p *Pipeline) ProcessSeq(ctx context.Context, docs iter.Seq[models.Document], opts models.Options) (*models.Result, error) {
	res := &models.Result{Documents: []models.DocumentReport{}}
	var perDoc [][]models.Movement
	ctxErr := ctx.Err()
	if ctxErr == nil {
		for doc := range docs {
			dr := p.extractor.ExtractDocument(doc)
			perDoc = append(perDoc, dr.Movements)
			res.Documents = append(res.Documents, dr.Report)

			if dr.Report.Warning != "" {
				p.logger.Warn(dr.Report.Warning, "document", doc.Name, "pages", dr.Report.Pages)
			} else {
				p.logger.Info("movements extracted", "document", doc.Name,
					"movements", dr.Report.Movements, "dropped", dr.Report.Dropped)
			}

			if ctxErr = ctx.Err(); ctxErr != nil {
				break
			}
		}
	}

	movements := Merge(perDoc...)
	if opts.RemoveDuplicates {
		before := len(movements)
		movements = Deduplicate(movements)
		p.logger.Debug("duplicates removed", "count", before-len(movements))
	}
	if opts.SortByDate {
		movements = SortByDate(movements)
	}
	if movements == nil {
		movements = []models.Movement{}
	}

	res.Movements = movements
	res.Monthly = Monthly(movements)
	res.Stats = Summarize(movements)
	res.NoData = len(movements) == 0
	if res.NoData {
		p.logger.Warn("no movements found in any document", "documents", len(res.Documents))
	}
	return res, ctxErr
}
