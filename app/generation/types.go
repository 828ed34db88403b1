package generation

// ScriptResult is what the generation service produces from a topic: the
// research behind the episode, the narration script, a category label for
// filtering, and the citation queries extracted from the research.
type ScriptResult struct {
	ResearchNotes   string   `json:"research_notes"`
	Script          string   `json:"script"`
	Category        string   `json:"category"`
	CitationQueries []string `json:"citation_queries"`
}

// AudioResult is the synthesized narration for a script.
type AudioResult struct {
	Data            []byte
	DurationSeconds float64
}
