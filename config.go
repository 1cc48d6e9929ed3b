package acceptor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ft-irc/irc-acceptor/flags"
	"github.com/ft-irc/irc-acceptor/tester"
)

// Config holds the application configuration. It is built once per run and
// read-only afterwards.
type Config struct {
	Binary      string        // Path to the IRC server binary
	Password    string        // Server credential (PASS)
	Tester      string        // Tester selection ("v1" or "v2")
	TesterDir   string        // Directory containing the tester scripts
	Python      string        // Python interpreter for the tester
	Port        int           // Port to use; 0 means auto-assign
	Timeout     time.Duration // How long to wait for the server to listen
	Valgrind    bool          // Run the server under valgrind
	OutDir      string        // Directory for captured logs
	Verbose     bool          // Tester verbosity
	Only        []string      // Restrict the tester to these named tests
	RunInterval time.Duration // Interval between sessions
	RunOnce     bool          // Exit after one session
	Log         log.Logger
}

// Options carries raw, pre-validation session settings. It exists so both the
// CLI flags and the interactive prompt can feed the same construction path.
type Options struct {
	Binary      string
	Password    string
	Tester      string
	TesterDir   string
	Python      string
	Port        int
	Timeout     time.Duration
	Valgrind    bool
	OutDir      string
	Verbose     bool
	Only        []string
	RunInterval time.Duration
}

// Profile is the YAML profile file shape; it supplies defaults for flags the
// user did not set explicitly.
type Profile struct {
	Binary    string `yaml:"binary"`
	Password  string `yaml:"password"`
	Tester    string `yaml:"tester"`
	TesterDir string `yaml:"tester-dir"`
	Python    string `yaml:"python"`
	Port      int    `yaml:"port"`
	Timeout   string `yaml:"timeout"`
	Valgrind  bool   `yaml:"valgrind"`
	OutDir    string `yaml:"out"`
	Verbose   bool   `yaml:"verbose"`
}

// LoadProfile reads and parses a YAML profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %q: %w", path, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile %q: %w", path, err)
	}
	return &p, nil
}

// NewConfig creates a new Config from cli context. Explicitly set flags win
// over profile values, which win over flag defaults.
func NewConfig(cctx *cli.Context, logger log.Logger) (*Config, error) {
	if err := flags.CheckRequired(cctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	opts := Options{
		Binary:      cctx.String(flags.Binary.Name),
		Password:    cctx.String(flags.Password.Name),
		Tester:      cctx.String(flags.Tester.Name),
		TesterDir:   cctx.String(flags.TesterDir.Name),
		Python:      cctx.String(flags.Python.Name),
		Port:        cctx.Int(flags.Port.Name),
		Timeout:     cctx.Duration(flags.Timeout.Name),
		Valgrind:    cctx.Bool(flags.Valgrind.Name),
		OutDir:      cctx.String(flags.OutDir.Name),
		Verbose:     cctx.Bool(flags.Verbose.Name),
		Only:        cctx.StringSlice(flags.Only.Name),
		RunInterval: cctx.Duration(flags.RunInterval.Name),
	}

	if profilePath := cctx.String(flags.Profile.Name); profilePath != "" {
		profile, err := LoadProfile(profilePath)
		if err != nil {
			return nil, err
		}
		if err := applyProfile(&opts, profile, cctx); err != nil {
			return nil, err
		}
	}

	return NewConfigFromOptions(opts, logger)
}

// applyProfile copies profile values into opts for flags the user left unset.
func applyProfile(opts *Options, p *Profile, cctx *cli.Context) error {
	if !cctx.IsSet(flags.Binary.Name) && p.Binary != "" {
		opts.Binary = p.Binary
	}
	if !cctx.IsSet(flags.Password.Name) && p.Password != "" {
		opts.Password = p.Password
	}
	if !cctx.IsSet(flags.Tester.Name) && p.Tester != "" {
		opts.Tester = p.Tester
	}
	if !cctx.IsSet(flags.TesterDir.Name) && p.TesterDir != "" {
		opts.TesterDir = p.TesterDir
	}
	if !cctx.IsSet(flags.Python.Name) && p.Python != "" {
		opts.Python = p.Python
	}
	if !cctx.IsSet(flags.Port.Name) && p.Port != 0 {
		opts.Port = p.Port
	}
	if !cctx.IsSet(flags.Timeout.Name) && p.Timeout != "" {
		d, err := time.ParseDuration(p.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout in profile: %w", err)
		}
		opts.Timeout = d
	}
	if !cctx.IsSet(flags.Valgrind.Name) && p.Valgrind {
		opts.Valgrind = true
	}
	if !cctx.IsSet(flags.OutDir.Name) && p.OutDir != "" {
		opts.OutDir = p.OutDir
	}
	if !cctx.IsSet(flags.Verbose.Name) && p.Verbose {
		opts.Verbose = true
	}
	return nil
}

// NewConfigFromOptions validates raw options and resolves paths into an
// immutable Config.
func NewConfigFromOptions(opts Options, logger log.Logger) (*Config, error) {
	if opts.Binary == "" {
		return nil, errors.New("server binary is required")
	}
	if opts.Tester != tester.VersionV1 && opts.Tester != tester.VersionV2 {
		return nil, fmt.Errorf("invalid tester %q: must be %q or %q", opts.Tester, tester.VersionV1, tester.VersionV2)
	}
	if opts.Port < 0 || opts.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", opts.Port)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	binary, err := filepath.Abs(opts.Binary)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for binary '%s': %w", opts.Binary, err)
	}
	testerDir, err := filepath.Abs(opts.TesterDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for tester directory '%s': %w", opts.TesterDir, err)
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = filepath.Join("runs", time.Now().Format("20060102_150405"))
	}
	outDir, err = filepath.Abs(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for output directory '%s': %w", opts.OutDir, err)
	}

	return &Config{
		Binary:      binary,
		Password:    opts.Password,
		Tester:      opts.Tester,
		TesterDir:   testerDir,
		Python:      opts.Python,
		Port:        opts.Port,
		Timeout:     opts.Timeout,
		Valgrind:    opts.Valgrind,
		OutDir:      outDir,
		Verbose:     opts.Verbose,
		Only:        opts.Only,
		RunInterval: opts.RunInterval,
		RunOnce:     opts.RunInterval == 0,
		Log:         logger,
	}, nil
}
