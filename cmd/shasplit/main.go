package main

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/shasplit/shasplit/internal/shasplit"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run())
}

func run() int {
	log := newLogger()

	root := &cobra.Command{
		Use:     "shasplit",
		Short:   "Content-addressed backup engine",
		Version: version + " (" + commit + ")",
	}

	opts := &rootOptions{cfg: shasplit.DefaultConfig(), log: log}
	root.PersistentFlags().StringVar(&opts.cfg.Directory, "directory", opts.cfg.Directory, "repository directory")
	root.PersistentFlags().StringVar(&opts.cfg.Algorithm, "algorithm", opts.cfg.Algorithm, "digest algorithm (sha1, sha224, sha256, sha384, sha512)")
	root.PersistentFlags().Int64Var(&opts.cfg.PartSize, "partsize", opts.cfg.PartSize, "part size in bytes")
	root.PersistentFlags().Int64Var(&opts.cfg.MaxParts, "maxparts", opts.cfg.MaxParts, "maximum parts per instance")
	root.PersistentFlags().StringVar(&opts.cfg.SnapshotSuffix, "snapshot-suffix", opts.cfg.SnapshotSuffix, "LVM snapshot name suffix")
	root.PersistentFlags().Int64Var(&opts.cfg.SnapshotSize, "snapshot-size", opts.cfg.SnapshotSize, "LVM snapshot size in bytes")
	root.PersistentFlags().BoolVar(&opts.noProgress, "no-progress", false, "disable progress output")

	root.AddCommand(newAddCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newRecoverCmd(opts))
	root.AddCommand(newCheckCmd(opts))

	if err := root.Execute(); err != nil {
		return exitCode(err)
	}
	return 0
}

// rootOptions carries flags and collaborators shared by every subcommand.
type rootOptions struct {
	cfg        shasplit.Config
	log        *logrus.Entry
	noProgress bool
}

func (o *rootOptions) repository() (*shasplit.Repository, error) {
	return shasplit.New(o.cfg, o.log)
}

// newLogger configures logrus the way the original's logging.basicConfig
// call did: INFO by default, DEBUG when SHASPLIT_DEBUG is set to anything
// other than "" or "0".
func newLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level := logrus.InfoLevel
	if v := os.Getenv("SHASPLIT_DEBUG"); v != "" && v != "0" {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	return logrus.NewEntry(logger)
}

// exitCode maps errors to process exit codes: 1 for a *shasplit.ValidationError
// (an input rejected before any I/O), 2 for every other error, including
// integrity, incomplete-backup and I/O failures. Cobra's argument-count and
// flag errors and unparsable numeric arguments are not ValidationErrors, so
// they also exit with 2.
func exitCode(err error) int {
	var validationErr *shasplit.ValidationError
	if errors.As(err, &validationErr) {
		return 1
	}
	return 2
}
