// Package config loads and validates the configuration of processes that
// run pipelines.
//
// It uses Viper to read a YAML config file, godotenv to load a .env file,
// and binds environment variables on top, so SCHEDULER_QUEUE_SIZE (or
// TALKBACK_SCHEDULER_QUEUE_SIZE with WithEnvPrefix("TALKBACK")) overrides
// scheduler.queue_size.
//
// # Usage
//
//	var cfg config.Config
//	if err := config.Load("ingest", &cfg); err != nil {
//		return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
package config
