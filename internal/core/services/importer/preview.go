package importer

// SampleRow is one example row shown to the operator during preview.
type SampleRow struct {
	RowNumber   int    `json:"row_number"`
	Referencia  string `json:"referencia"`
	Contraparte string `json:"contraparte"`
	TargetLabel string `json:"target_label,omitempty"`
}

// Summary is the preview result: aggregate counts plus a capped sample
// list per classification. Building it performs no writes.
type Summary struct {
	TotalRegistros int `json:"total_registros"`
	Matched        int `json:"matched"`
	Duplicados     int `json:"duplicados"`
	SinCoincidir   int `json:"sin_coincidir"`
	// Invalidos counts rows dropped during parsing (empty identifier,
	// out-of-range reference date); they never reach classification.
	Invalidos int `json:"invalidos"`

	Samples map[Class][]SampleRow `json:"samples"`
}

// BuildSummary aggregates classified rows into a preview summary. At
// most sampleLimit example rows are kept per classification; the UI
// only shows a bounded number, never the whole file.
func BuildSummary(rows []ClassifiedRow, invalid int, sampleLimit int) *Summary {
	s := &Summary{
		TotalRegistros: len(rows) + invalid,
		Invalidos:      invalid,
		Samples:        make(map[Class][]SampleRow),
	}

	for _, row := range rows {
		switch row.Class {
		case ClassMatched:
			s.Matched++
		case ClassDuplicate:
			s.Duplicados++
		case ClassUnmatched:
			s.SinCoincidir++
		}

		if len(s.Samples[row.Class]) < sampleLimit {
			s.Samples[row.Class] = append(s.Samples[row.Class], SampleRow{
				RowNumber:   row.Row.RowNumber(),
				Referencia:  row.Row.NaturalID(),
				Contraparte: row.Row.Counterparty(),
				TargetLabel: row.TargetLabel,
			})
		}
	}

	return s
}
