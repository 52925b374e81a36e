package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWorker(); err != nil {
		return err
	}
	if err := c.validateModel(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.StorageDir == "" {
		return errors.New("paths.storage_dir must be set")
	}
	return nil
}

func (c *Config) validateWorker() error {
	if c.Worker.PollInterval <= 0 {
		return errors.New("worker.poll_interval must be a positive number of seconds")
	}
	if c.Worker.ErrorRetryInterval <= 0 {
		return errors.New("worker.error_retry_interval must be a positive number of seconds")
	}
	if c.Worker.StaleJobTimeout <= 0 {
		return errors.New("worker.stale_job_timeout must be a positive number of seconds")
	}
	return nil
}

func (c *Config) validateModel() error {
	if c.Model.DefaultName == "" {
		return errors.New("model.default_name must be set")
	}
	switch c.Model.Runtime {
	case "synthetic":
	case "http":
		if c.Model.Endpoint == "" {
			return errors.New("model.endpoint must be set when model.runtime is \"http\"")
		}
	default:
		return fmt.Errorf("model.runtime: unsupported value %q", c.Model.Runtime)
	}
	switch c.Model.InputFormat {
	case "waveform", "spectrogram":
	default:
		return fmt.Errorf("model.input_format: unsupported value %q", c.Model.InputFormat)
	}
	if c.Model.VectorDim <= 0 {
		return errors.New("model.vector_dim must be positive")
	}
	if c.Model.WindowSeconds <= 0 {
		return errors.New("model.window_seconds must be positive")
	}
	if c.Model.SampleRate <= 0 {
		return errors.New("model.sample_rate must be positive")
	}
	if c.Model.RequestTimeout <= 0 {
		return errors.New("model.request_timeout must be a positive number of seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
