package models

// displayNames maps content folder identifiers to their Arabic labels.
var displayNames = map[string]string{
	"clothes":    "الملابس",
	"vegetables": "الخضروات",
	"animals":    "الحيوانات",

	"shorts":   "شورت",
	"tshirts":  "قمصان",
	"pants":    "بنطال",
	"dress":    "فستان",
	"hats":     "قبعات",
	"jackets":  "سترات",
	"sweaters": "كنزات",

	"potatoes": "بطاطس",
	"tomatoes": "طماطم",
	"carrots":  "جزر",

	"dogs":  "كلاب",
	"cats":  "قطط",
	"birds": "طيور",
}

// DisplayName returns the Arabic label for a folder identifier, or the
// identifier itself when unknown.
func DisplayName(name string) string {
	if label, ok := displayNames[name]; ok {
		return label
	}
	return name
}
