package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Seednode/hostroulette/roulette"
	"github.com/Seednode/hostroulette/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind         string
	dataDir      string
	port         int
	prefix       string
	profile      bool
	spinDelay    time.Duration
	spinDuration time.Duration
	storage      string
	tlsCert      string
	tlsKey       string
	verbose      bool
	version      bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if !slices.Contains(storage.Backends, strings.ToLower(c.storage)) {
		return fmt.Errorf("invalid storage backend (must be one of %s): %q", strings.Join(storage.Backends, ", "), c.storage)
	}
	if c.spinDelay < 0 {
		return fmt.Errorf("invalid spin delay (must not be negative): %s", c.spinDelay)
	}
	if c.spinDuration <= 0 {
		return fmt.Errorf("invalid spin duration (must be positive): %s", c.spinDuration)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".hostroulette"
	}
	return filepath.Join(dir, "hostroulette")
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	// A missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("HOSTROULETTE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "hostroulette",
		Short:         "Spins a wheel to pick who hosts the next meeting, skipping absentees and the last two hosts.",
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
	pfs.StringVar(&cfg.dataDir, "data-dir", defaultDataDir(), "directory holding the saved roster (env: HOSTROULETTE_DATA_DIR)")
	pfs.StringVarP(&cfg.storage, "storage", "s", storage.BackendBadger, "storage backend: badger, sqlite or memory (env: HOSTROULETTE_STORAGE)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: HOSTROULETTE_VERBOSE)")

	fs := cmd.Flags()
	fs.StringVarP(&cfg.bind, "bind", "b", "127.0.0.1", "address to bind to (env: HOSTROULETTE_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: HOSTROULETTE_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: HOSTROULETTE_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: HOSTROULETTE_PROFILE)")
	fs.DurationVar(&cfg.spinDelay, "spin-delay", roulette.DefaultSpinDelay, "pause before the wheel starts turning (env: HOSTROULETTE_SPIN_DELAY)")
	fs.DurationVar(&cfg.spinDuration, "spin-duration", roulette.DefaultSpinDuration, "how long the wheel turns before the host is shown (env: HOSTROULETTE_SPIN_DURATION)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: HOSTROULETTE_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: HOSTROULETTE_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: HOSTROULETTE_VERSION)")

	bindFlags(v, pfs)
	bindFlags(v, fs)

	cmd.AddCommand(newRosterCmd(cfg), newPickCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("hostroulette v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
