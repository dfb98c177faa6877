package config

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.QueueName != "outline:jobs" {
		t.Errorf("unexpected default queue name: %q", cfg.QueueName)
	}
	if cfg.WorkerPoolSize < 1 || cfg.WorkerPoolSize > 8 {
		t.Errorf("default pool size must be in [1,8], got %d", cfg.WorkerPoolSize)
	}
	if cfg.RenderDPI != 108 {
		t.Errorf("unexpected default DPI: %d", cfg.RenderDPI)
	}
	if len(cfg.OCRLanguages) != 1 || cfg.OCRLanguages[0] != "eng" {
		t.Errorf("unexpected default languages: %v", cfg.OCRLanguages)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("WORKER_POOL_SIZE", "3")
	t.Setenv("OCR_LANGUAGES", "eng, deu,")
	t.Setenv("QUEUE_NAME", "outline:test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.WorkerPoolSize != 3 {
		t.Errorf("expected pool size 3, got %d", cfg.WorkerPoolSize)
	}
	if len(cfg.OCRLanguages) != 2 || cfg.OCRLanguages[0] != "eng" || cfg.OCRLanguages[1] != "deu" {
		t.Errorf("expected [eng deu], got %v", cfg.OCRLanguages)
	}
	if cfg.QueueName != "outline:test" {
		t.Errorf("expected queue outline:test, got %q", cfg.QueueName)
	}
}

func TestLoadConfigIgnoresMalformedInt(t *testing.T) {
	t.Setenv("WORKER_POOL_SIZE", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WorkerPoolSize != DefaultPoolSize() {
		t.Errorf("expected fallback to default pool size, got %d", cfg.WorkerPoolSize)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty queue", func(c *Config) { c.QueueName = "" }},
		{"zero pool", func(c *Config) { c.WorkerPoolSize = 0 }},
		{"oversized pool", func(c *Config) { c.WorkerPoolSize = 200 }},
		{"tiny timeout", func(c *Config) { c.ProcessingTimeout = 10 }},
		{"absurd dpi", func(c *Config) { c.RenderDPI = 1200 }},
		{"no languages", func(c *Config) { c.OCRLanguages = nil }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadConfig()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
