package i18n

// Lang is one of the two site languages. Components that need localized
// strings take a Lang (or a Dict) explicitly; there is no package-level
// current language.
type Lang string

const (
	FR Lang = "fr"
	NL Lang = "nl"
)

// Parse falls back to French, the site default.
func Parse(s string) Lang {
	if s == string(NL) {
		return NL
	}
	return FR
}

var dayLabels = map[string]map[Lang]string{
	"monday":    {FR: "Lundi", NL: "Maandag"},
	"tuesday":   {FR: "Mardi", NL: "Dinsdag"},
	"wednesday": {FR: "Mercredi", NL: "Woensdag"},
	"thursday":  {FR: "Jeudi", NL: "Donderdag"},
	"friday":    {FR: "Vendredi", NL: "Vrijdag"},
	"saturday":  {FR: "Samedi", NL: "Zaterdag"},
	"sunday":    {FR: "Dimanche", NL: "Zondag"},
}

// DayLabel localizes a weekday id like "wednesday". Unknown ids come
// back unchanged so a bad activity document stays visible, not blank.
func DayLabel(day string, lang Lang) string {
	if labels, ok := dayLabels[day]; ok {
		return labels[Parse(string(lang))]
	}
	return day
}
