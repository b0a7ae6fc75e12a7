package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/quillsoft/paperscope/internal/model"
)

// WriteMatrixXLSX exports a comparison matrix to an XLSX workbook: one
// sheet, a header row naming the documents, one row per axis. Documents
// keep the analyses order; a document with no cell for an axis gets an
// empty cell.
func WriteMatrixXLSX(agg *model.AggregateResult, analyses []*model.DocumentAnalysis, path string) error {
	if agg == nil || len(agg.Matrix) == 0 {
		return eris.New("report: no comparison matrix to export")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Comparison")
	if err != nil {
		return eris.Wrap(err, "report: add xlsx sheet")
	}

	header := sheet.AddRow()
	header.AddCell().SetString("Axis")
	for _, an := range analyses {
		header.AddCell().SetString(docTitle(an))
	}

	for _, row := range agg.Matrix {
		r := sheet.AddRow()
		r.AddCell().SetString(row.Axis)
		for _, an := range analyses {
			r.AddCell().SetString(row.Cells[an.Document.ID])
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "report: save xlsx")
	}
	return nil
}
