package services

import "stopfrisk/models"

const stageShares = "shares"

// ShareTolerance bounds how far a share column may sum away from 1.
const ShareTolerance = 1e-9

// Proportions divides each column of rows by that column's own total over
// the given rows. A column that sums to zero gets zero shares and a
// ZeroTotal diagnostic.
func Proportions(rows []models.JoinedRecord) ([]models.ProportionRecord, []models.Diagnostic) {
	var sumA, sumB float64
	for _, r := range rows {
		sumA += r.A
		sumB += r.B
	}

	var diags []models.Diagnostic
	if len(rows) > 0 && sumA == 0 {
		diags = append(diags, zeroTotal("A"))
	}
	if len(rows) > 0 && sumB == 0 {
		diags = append(diags, zeroTotal("B"))
	}

	out := make([]models.ProportionRecord, len(rows))
	for i, r := range rows {
		out[i] = models.ProportionRecord{Category: r.Category}
		if sumA != 0 {
			out[i].ShareA = r.A / sumA
		}
		if sumB != 0 {
			out[i].ShareB = r.B / sumB
		}
	}
	return out, diags
}

func zeroTotal(column string) models.Diagnostic {
	return models.Diagnostic{
		Kind:    models.ErrZeroTotal,
		Stage:   stageShares,
		Row:     -1,
		Subject: column,
		Detail:  "column total is zero, shares set to 0",
	}
}
