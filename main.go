package main

import (
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/adammathes/ttverify/internal/logging"
	"github.com/adammathes/ttverify/pkg/config"
	"github.com/adammathes/ttverify/pkg/report"
	"github.com/adammathes/ttverify/pkg/validate"
)

const version = "0.1.0"

type options struct {
	jsonOutput     string
	configPath     string
	revision       string
	enable         []string
	disable        []string
	escalate       []string
	extensions     []string
	warningsErrors bool
	logLevel       string
	showVersion    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ttverify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: ttverify [flags] <file.ttml>...")
		fs.PrintDefaults()
	}

	var o options
	fs.StringVar(&o.jsonOutput, "json", "", "write JSON report to `path` (- for stdout)")
	fs.Lookup("json").NoOptDefVal = "-"
	fs.StringVarP(&o.configPath, "config", "c", "", "load settings from a TOML or YAML `file`")
	fs.StringVarP(&o.revision, "revision", "r", "", "validate as ttml1 or ttml2 instead of detecting")
	fs.StringSliceVar(&o.enable, "enable-warning", nil, "enable optional warning `names`")
	fs.StringSliceVar(&o.disable, "disable-warning", nil, "disable optional warning `names`")
	fs.StringSliceVar(&o.escalate, "escalate", nil, "report warnings with these message `keys` as errors")
	fs.StringSliceVar(&o.extensions, "extension", nil, "recognize additional extension `designations`")
	fs.BoolVar(&o.warningsErrors, "treat-warnings-as-errors", false, "report every warning as an error")
	fs.StringVar(&o.logLevel, "log-level", "", "log `level` (trace, debug, info, warn, error, disabled)")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if o.showVersion {
		fmt.Fprintf(stdout, "ttverify %s\n", version)
		return 0
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := settings(o)
	if err != nil {
		fmt.Fprintf(stderr, "Fatal: %v\n", err)
		return 2
	}
	model, err := cfg.Model()
	if err != nil {
		fmt.Fprintf(stderr, "Fatal: %v\n", err)
		return 2
	}

	logCfg := logging.DefaultConfig(logging.ProfileRuntime)
	logging.ApplyEnvOverrides(&logCfg)
	if cfg.LogLevel != "" {
		logCfg.Level = cfg.Level()
	}
	logCfg.Out = stderr
	log := logging.NewWithConfig("ttverify", logCfg)

	opts := validate.Options{
		Model:      model,
		Policy:     cfg.Policy(),
		Extensions: cfg.Extensions,
		Logger:     &log,
	}

	var reports []*report.Report
	code := 0
	for _, path := range fs.Args() {
		r, err := validate.ValidateWithOptions(path, opts)
		if err != nil {
			fmt.Fprintf(stderr, "Fatal: %v\n", err)
			code = 2
			continue
		}
		reports = append(reports, r)
		if fs.NArg() > 1 {
			fmt.Fprintf(stderr, "%s:\n", path)
		}
		r.WriteText(stderr)
		code = max(code, exitCode(r))
	}

	if o.jsonOutput != "" {
		if err := writeJSON(reports, o.jsonOutput, stdout); err != nil {
			fmt.Fprintf(stderr, "Error writing JSON: %v\n", err)
			return 2
		}
	}
	log.Debug().Int("documents", len(reports)).Int("exit_code", code).Msg("done")
	return code
}

// settings overlays command line flags on the configuration file.
func settings(o options) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if o.revision != "" {
		cfg.Revision = o.revision
	}
	for _, n := range o.enable {
		cfg.Warnings[n] = true
	}
	for _, n := range o.disable {
		cfg.Warnings[n] = false
	}
	cfg.Escalate = append(cfg.Escalate, o.escalate...)
	cfg.Extensions = append(cfg.Extensions, o.extensions...)
	if o.warningsErrors {
		cfg.TreatWarningsAsErrors = true
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// Exit codes: 0=valid, 1=errors, 2=fatal
func exitCode(r *report.Report) int {
	if r.FatalCount() > 0 {
		return 2
	}
	if r.ErrorCount() > 0 {
		return 1
	}
	return 0
}

func writeJSON(reports []*report.Report, path string, stdout io.Writer) error {
	var v any
	if len(reports) == 1 {
		v = reports[0].Output()
	} else {
		outs := make([]report.JSONOutput, len(reports))
		for i, r := range reports {
			outs[i] = r.Output()
		}
		v = outs
	}
	if path == "-" {
		return report.WriteJSON(stdout, v)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return report.WriteJSON(f, v)
}
