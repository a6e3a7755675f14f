package flags

import (
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

// Version is the client version, overridden at link time.
var Version = "0.1.0-unstable"

// NewApp creates an app with sane defaults.
func NewApp(gitCommit, gitDate, usage string) *cli.App {
	app := cli.NewApp()
	app.EnableBashCompletion = true
	app.Version = versionWithCommit(gitCommit, gitDate)
	app.Usage = usage
	return app
}

func versionWithCommit(gitCommit, gitDate string) string {
	vsn := Version
	if len(gitCommit) >= 8 {
		vsn += "-" + gitCommit[:8]
	}
	if gitCommit != "" && gitDate != "" {
		vsn += "-" + gitDate
	}
	return vsn
}

// Merge merges the given flag slices.
func Merge(groups ...[]cli.Flag) []cli.Flag {
	var ret []cli.Flag
	for _, group := range groups {
		ret = append(ret, group...)
	}
	return ret
}

// CheckEnvVars iterates over all the environment variables and checks if any
// of them look like a CLI flag but are not consumed by any flag.
func CheckEnvVars(ctx *cli.Context, flags []cli.Flag, prefix string) {
	known := make(map[string]string)
	for _, fl := range flags {
		envFlag, ok := fl.(interface{ GetEnvVars() []string })
		if !ok {
			continue
		}
		for _, env := range envFlag.GetEnvVars() {
			known[env] = fl.Names()[0]
		}
	}
	for _, kv := range os.Environ() {
		key := strings.SplitN(kv, "=", 2)[0]
		if !strings.HasPrefix(key, prefix+"_") {
			continue
		}
		if name, ok := known[key]; ok {
			log.Debug("Config environment variable found", "envvar", key, "flag", name)
			continue
		}
		log.Warn("Unknown config environment variable", "envvar", key)
	}
}
