/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/guesswho/selector"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bgm       string
	bind      string
	blacklist []string
	caption   string
	images    string
	interval  time.Duration
	mode      string
	names     []string
	port      int
	prefix    string
	profile   bool
	seed      uint64
	tlsCert   string
	tlsKey    string
	verbose   bool
	version   bool

	selection selector.Mode
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.interval <= 0 {
		return fmt.Errorf("invalid interval (must be greater than zero): %s", c.interval)
	}

	mode, err := selector.ParseMode(c.mode)
	if err != nil {
		return fmt.Errorf("invalid --mode: %w", err)
	}
	c.selection = mode

	c.prefix = strings.TrimSuffix(c.prefix, "/")

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// bindFlags lets every flag in fs fall back to its GUESSWHO_* environment
// variable when it was not set on the command line.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if s, ok := val.([]string); ok {
				val = strings.Join(s, ",")
			}
			_ = fs.Set(f.Name, fmt.Sprintf("%v", val))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("GUESSWHO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "guesswho",
		Short:         "Spin through a deck of portraits and stop on a random face.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	pfs := cmd.PersistentFlags()
	pfs.StringSliceVar(&cfg.blacklist, "blacklist", nil, "names that may be shown but never picked (env: GUESSWHO_BLACKLIST)")
	pfs.StringVarP(&cfg.images, "images", "i", "imgs", "directory containing portrait images (env: GUESSWHO_IMAGES)")
	pfs.DurationVar(&cfg.interval, "interval", 50*time.Millisecond, "time between portrait changes while spinning (env: GUESSWHO_INTERVAL)")
	pfs.StringVarP(&cfg.mode, "mode", "m", "sequential", "selection mode: sequential (a), random (b) or unrestricted (c) (env: GUESSWHO_MODE)")
	pfs.StringSliceVar(&cfg.names, "names", nil, "ordered image file names to use instead of the directory listing (env: GUESSWHO_NAMES)")
	pfs.Uint64Var(&cfg.seed, "seed", 0, "seed for random modes, 0 picks one at startup (env: GUESSWHO_SEED)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: GUESSWHO_VERBOSE)")

	fs := cmd.Flags()
	fs.StringVar(&cfg.bgm, "bgm", "", "path to background music played while spinning (env: GUESSWHO_BGM)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: GUESSWHO_BIND)")
	fs.StringVar(&cfg.caption, "caption", "Guess who?", "caption shown under the portrait (env: GUESSWHO_CAPTION)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: GUESSWHO_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: GUESSWHO_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: GUESSWHO_PROFILE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: GUESSWHO_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: GUESSWHO_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: GUESSWHO_VERSION)")

	bindFlags(v, pfs)
	bindFlags(v, fs)

	cmd.AddCommand(newConsoleCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("guesswho v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
