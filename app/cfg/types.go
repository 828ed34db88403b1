package cfg

type Cfg struct {
	// Server configuration
	Port    string
	BaseUrl string

	// Database configuration
	DBPath string

	// Background pipeline configuration
	WorkerCount int

	// Tone profile configuration
	TonesDir string

	// Generation service (script + text-to-speech)
	GenerationUrl string
	GenerationKey string

	// Cover image search (optional; strategy A disabled when unset)
	GoogleCSEId  string
	GoogleAPIKey string

	// Audio blob storage
	SupabaseUrl string
	SupabaseKey string
	AudioBucket string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
