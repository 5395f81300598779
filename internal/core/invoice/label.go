package invoice

import "github.com/google/uuid"

// Tax label identifiers as seeded in the tax_label table.
var (
	LabelVAT20 = uuid.MustParse("01964ade-4bfc-7be4-84b2-a1175d6fff26")
	LabelVAT10 = uuid.MustParse("01964ae3-9828-7e3d-aa40-28de2be9c782")
	// LabelVAT0 is printed as "Г" on receipts.
	LabelVAT0 = uuid.MustParse("01964ae3-c4ca-708f-8510-a312fd75da41")
	// LabelVATExempt is printed as "А" and is also a 0% rate.
	LabelVATExempt = uuid.MustParse("01964ae3-fb92-7104-bbc5-85c6413e0730")
)

// Label codes are Cyrillic letters, not their Latin look-alikes.
var labelsByCode = map[string]uuid.UUID{
	"Ђ": LabelVAT20,
	"Е": LabelVAT10,
	"Г": LabelVAT0,
	"А": LabelVATExempt,
}

// DefaultLabel is returned for every code missing from the table.
var DefaultLabel = LabelVAT20

// ResolveLabel maps a single-character tax label code to its label id.
// It never fails: unknown and empty codes resolve to DefaultLabel.
func ResolveLabel(code string) uuid.UUID {
	if id, ok := labelsByCode[code]; ok {
		return id
	}
	return DefaultLabel
}
