package tones

// Profile describes how one narration tone sounds: the synthesis voice and
// the style instructions handed to the generation service.
type Profile struct {
	Name         string  `yaml:"-"`
	Voice        string  `yaml:"voice"`
	Instructions string  `yaml:"instructions"`
	SpeakingRate float64 `yaml:"speaking_rate"`
}

type profileFile struct {
	Tones map[string]Profile `yaml:"tones"`
}
