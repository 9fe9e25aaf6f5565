package configfx

import (
	"os"

	"github.com/spf13/pflag"
)

func FlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)

	// Config file flag
	fs.StringP("config", "c", "", "Config file")
	fs.StringP(ConfigMode, "m", "", "Mode to run in: orchestrator or runner (overrides MODE)")

	return fs
}

func PFlags() *pflag.FlagSet {
	fs := FlagSet(os.Args[0])

	// ExitOnError: a bad flag never returns here
	_ = fs.Parse(os.Args[1:])

	return fs
}
