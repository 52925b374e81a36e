package config

import "strings"

// normalize expands path fields and trims string settings so the rest of
// the application can rely on absolute, whitespace-free values.
func (c *Config) normalize() error {
	for _, field := range []*string{
		&c.Paths.DataDir,
		&c.Paths.StorageDir,
		&c.Paths.LogDir,
	} {
		expanded, err := expandPath(strings.TrimSpace(*field))
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	c.Model.DefaultName = strings.TrimSpace(c.Model.DefaultName)
	c.Model.DisplayName = strings.TrimSpace(c.Model.DisplayName)
	if c.Model.DisplayName == "" {
		c.Model.DisplayName = c.Model.DefaultName
	}
	c.Model.Runtime = strings.ToLower(strings.TrimSpace(c.Model.Runtime))
	if c.Model.Runtime == "" {
		c.Model.Runtime = defaultModelRuntime
	}
	c.Model.Endpoint = strings.TrimSpace(c.Model.Endpoint)
	c.Model.InputFormat = strings.ToLower(strings.TrimSpace(c.Model.InputFormat))
	if c.Model.InputFormat == "" {
		c.Model.InputFormat = defaultInputFormat
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
