package config

import (
	"github.com/spf13/pflag"
)

// Flags are the command-line options of the server binary.
type Flags struct {
	ConfigFile string
	EnvFile    string
	Addr       string
}

// ParseFlags reads the server flags from args (without the program name).
//
//	-c, --config    YAML config file
//	    --env-file  .env file merged into the environment
//	-a, --addr      listen address, overrides every other source
func ParseFlags(name string, args []string) (Flags, error) {
	var f Flags
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(&f.ConfigFile, "config", "c", "", "path to a YAML config file")
	fs.StringVar(&f.EnvFile, "env-file", "", "path to a .env file")
	fs.StringVarP(&f.Addr, "addr", "a", "", "HTTP listen address")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	return f, nil
}

// Sources returns the file locations selected by the flags.
func (f Flags) Sources() Sources {
	return Sources{ConfigFile: f.ConfigFile, EnvFile: f.EnvFile}
}

// Apply writes flag overrides onto cfg.
func (f Flags) Apply(cfg *Config) {
	if f.Addr != "" {
		cfg.HTTP.Addr = f.Addr
	}
}
