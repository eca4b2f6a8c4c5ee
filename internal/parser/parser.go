package parser

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/insightdelivered/card-statement-extractor/internal/models"
)

// PageResult is what one page of text produced.
type PageResult struct {
	Movements []models.Movement
	Kind      MatchKind
	Matched   int // raw tuples found by the selected layout
	Dropped   int // tuples rejected by Normalize
}

// DocumentResult is the page-ordered output of one document.
type DocumentResult struct {
	Movements []models.Movement
	Report    models.DocumentReport
}

// Extractor turns page text into movements. It holds no state besides
// the logger and can be shared freely.
type Extractor struct {
	logger *log.Logger
}

// New returns an Extractor. A nil logger discards output.
func New(logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Extractor{logger: logger}
}

// ExtractPage runs the full layout over text and falls back to the reduced
// layout only when the full one finds nothing. Tuples that fail
// normalization are dropped and counted.
func (e *Extractor) ExtractPage(text string) PageResult {
	var res PageResult
	matches := MatchBlock(text)
	res.Matched = len(matches)
	if len(matches) > 0 {
		res.Kind = matches[0].Kind
	}

	for _, m := range matches {
		mv, err := Normalize(m)
		if err != nil {
			res.Dropped++
			e.logger.Debug("dropping candidate", "layout", m.Kind, "error", err)
			continue
		}
		res.Movements = append(res.Movements, mv)
	}
	return res
}

// ExtractDocument processes the pages of doc in order.
func (e *Extractor) ExtractDocument(doc models.Document) DocumentResult {
	out := DocumentResult{
		Report: models.DocumentReport{Name: doc.Name, Pages: len(doc.Pages)},
	}

	for i, page := range doc.Pages {
		res := e.ExtractPage(page)
		out.Movements = append(out.Movements, res.Movements...)
		out.Report.Matched += res.Matched
		out.Report.Dropped += res.Dropped
		if res.Matched > 0 && res.Kind == KindReduced {
			out.Report.Fallback++
		}
		e.logger.Debug("page processed", "document", doc.Name, "page", i+1,
			"layout", res.Kind, "matched", res.Matched, "dropped", res.Dropped)
	}
	out.Report.Movements = len(out.Movements)

	switch {
	case doc.Err != nil:
		out.Report.Warning = "extraction failed: " + doc.Err.Error()
	case out.Report.NoMovements():
		out.Report.Warning = "no movements found"
	}
	return out
}
