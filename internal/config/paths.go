package config

import "path/filepath"

// Resolve returns a copy of c with its file system paths joined to baseDir.
// Absolute and empty paths are kept as they are.
func (c *Config) Resolve(baseDir string) *Config {
	out := *c
	out.Input = join(baseDir, c.Input)
	out.Output = join(baseDir, c.Output)
	out.DataDir = join(baseDir, c.DataDir)
	out.IncludesDir = join(baseDir, c.IncludesDir)
	out.TokensFile = join(baseDir, c.TokensFile)
	out.SiteFile = join(baseDir, c.SiteFile)
	out.HappeningsFile = join(baseDir, c.HappeningsFile)
	out.History.Path = join(baseDir, c.History.Path)
	return &out
}

func join(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}
