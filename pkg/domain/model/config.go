package model

// Config is the command runner configuration
type Config struct {
	// Environments permitted to execute commands. Empty means nothing runs.
	Environments []string `toml:"environments" yaml:"environments"`
	// Commands are the command templates, run in order
	Commands []string `toml:"commands" yaml:"commands"`
	// Disks maps a disk name ("content", "users") to its path prefix
	Disks map[string]string `toml:"disks" yaml:"disks"`
	// Shell used to run the joined command line
	Shell string `toml:"shell" yaml:"shell"`
	// ShellEscape quotes substituted values for POSIX shells
	ShellEscape bool `toml:"shell_escape" yaml:"shell_escape"`
}
