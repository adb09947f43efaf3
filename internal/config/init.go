package config

import (
	"bytes"
	"os"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

const initHeader = "# sitebuilder configuration\n# Paths are relative to the directory sitebuilder runs in.\n\n"

// Init writes a default configuration file to configPath. An existing file is only
// replaced when force is set.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	var buf bytes.Buffer
	buf.WriteString(initHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Default()); err != nil {
		return ferrors.InternalError("failed to encode default configuration").WithCause(err).Build()
	}
	if err := enc.Close(); err != nil {
		return ferrors.InternalError("failed to encode default configuration").WithCause(err).Build()
	}

	if err := atomic.WriteFile(configPath, &buf); err != nil {
		return ferrors.FileSystemError("failed to write configuration file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	return nil
}
