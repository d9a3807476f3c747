package insight

// Mapper maps cluster sentiments to digest sections for surfacing
type Mapper struct {
	mapping map[string][]string
}

// NewMapper creates a new digest section mapper
func NewMapper() *Mapper {
	return &Mapper{
		mapping: map[string][]string{
			"warm":    {"highlights"},
			"playful": {"highlights"},
			"neutral": {"logistics"},
			"tense":   {"watchpoints", "highlights"},
			"cold":    {"watchpoints"},
		},
	}
}

// MapSentimentToSections returns the digest sections a cluster with the given
// dominant sentiment belongs in
func (m *Mapper) MapSentimentToSections(sentiment string) []string {
	sections, exists := m.mapping[sentiment]
	if !exists {
		return []string{}
	}
	// Return a copy to avoid external modification
	result := make([]string, len(sections))
	copy(result, sections)
	return result
}
