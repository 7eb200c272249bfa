// Package corpus holds the static reference table of building-code excerpts
// and the loader that reads it once at startup.
package corpus

// Canonical field names of the reference table.
const (
	FieldManifestation   = "manifestation"
	FieldStandard        = "standard"
	FieldSection         = "section"
	FieldExcerpt         = "excerpt"
	FieldRecommendations = "recommendations"
	FieldRelatedQueries  = "related_queries"
)

// RequiredFields lists every column a source table must provide.
var RequiredFields = []string{
	FieldManifestation,
	FieldStandard,
	FieldSection,
	FieldExcerpt,
	FieldRecommendations,
	FieldRelatedQueries,
}

// columnAliases maps accepted header spellings to canonical field names. The
// Portuguese headers are the ones used by the published reference spreadsheet.
var columnAliases = map[string]string{
	"manifestation":          FieldManifestation,
	"manifestacao":           FieldManifestation,
	"standard":               FieldStandard,
	"norma":                  FieldStandard,
	"section":                FieldSection,
	"secao":                  FieldSection,
	"excerpt":                FieldExcerpt,
	"trecho":                 FieldExcerpt,
	"recommendations":        FieldRecommendations,
	"recomendacoes":          FieldRecommendations,
	"related_queries":        FieldRelatedQueries,
	"consultas_relacionadas": FieldRelatedQueries,
}

// ReferenceEntry is one row of the reference table.
type ReferenceEntry struct {
	Manifestation   string `json:"manifestation"`
	Standard        string `json:"standard"`
	Section         string `json:"section"`
	Excerpt         string `json:"excerpt"`
	Recommendations string `json:"recommendations"`
	RelatedQueries  string `json:"related_queries"`
}

func (e ReferenceEntry) field(name string) string {
	switch name {
	case FieldManifestation:
		return e.Manifestation
	case FieldStandard:
		return e.Standard
	case FieldSection:
		return e.Section
	case FieldExcerpt:
		return e.Excerpt
	case FieldRecommendations:
		return e.Recommendations
	case FieldRelatedQueries:
		return e.RelatedQueries
	}
	return ""
}

func (e *ReferenceEntry) set(name, value string) {
	switch name {
	case FieldManifestation:
		e.Manifestation = value
	case FieldStandard:
		e.Standard = value
	case FieldSection:
		e.Section = value
	case FieldExcerpt:
		e.Excerpt = value
	case FieldRecommendations:
		e.Recommendations = value
	case FieldRelatedQueries:
		e.RelatedQueries = value
	}
}
