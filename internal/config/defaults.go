package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/shortlist/data/runs.db"
	}
	if cfg.Embedding.Backend == "" {
		cfg.Embedding.Backend = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/shortlist/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Scorer.MaxExplanationChars == 0 {
		cfg.Scorer.MaxExplanationChars = 1200
	}
	if cfg.Scorer.TimeoutSeconds == 0 {
		cfg.Scorer.TimeoutSeconds = 60
	}
	if cfg.Scorer.Workers == 0 {
		cfg.Scorer.Workers = 1
	}
	if cfg.Screen.TopK == 0 {
		cfg.Screen.TopK = 3
	}
	if cfg.Screen.Extensions == nil {
		cfg.Screen.Extensions = []string{".pdf", ".txt", ".md", ".docx", ".odt", ".xlsx"}
	}
}
