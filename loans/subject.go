package loans

import "strings"

// Unknown is the subject of call numbers without a known prefix.
const Unknown = "Unknown"

// SubjectPrefix maps a call number prefix to a subject category.
type SubjectPrefix struct {
	Prefix  string
	Subject string
}

// Subjects is the call number scheme of the library. Order matters: longer
// prefixes (Kat, Per) come before the single letter they start with.
var Subjects = []SubjectPrefix{
	{"A", "Manuals"},
	{"B", "Italian Art"},
	{"C", "Italian Artists"},
	{"D", "Rome"},
	{"E", "Italian Topography"},
	{"F", "Travel Literature"},
	{"G", "Sources"},
	{"H", "Iconography"},
	{"J", "Ornament"},
	{"Kat", "Catalogues"},
	{"K", "Commemorative and Collected Writings"},
	{"L", "Congress Publications"},
	{"M", "Art in General"},
	{"N", "Architecture"},
	{"O", "Sculpture"},
	{"Per", "Periodicals"},
	{"P", "Painting"},
	{"Q", "Manuscript Illumination"},
	{"R", "Graphic Arts"},
	{"S", "Applied Arts"},
	{"T", "Collecting Art, Museum Studies"},
	{"U", "Registers of Artistic Monuments"},
	{"V", "Cultural Institutions"},
	{"W", "Non-Italian Artists"},
	{"X", "European Topography"},
	{"Y", "World Topography"},
	{"Z", "Related Disciplines"},
}

// Subject returns the subject category for a call number.
func Subject(callNumber string) string {
	for _, sp := range Subjects {
		if strings.HasPrefix(callNumber, sp.Prefix) {
			return sp.Subject
		}
	}
	return Unknown
}

// SubjectNames returns all subject categories in scheme order, followed by
// Unknown.
func SubjectNames() []string {
	names := make([]string, 0, len(Subjects)+1)
	for _, sp := range Subjects {
		names = append(names, sp.Subject)
	}
	return append(names, Unknown)
}
