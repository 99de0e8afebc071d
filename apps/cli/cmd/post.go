package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/jsonpost/packages/core/config"
	"github.com/abdul-hamid-achik/jsonpost/packages/core/env"
	"github.com/abdul-hamid-achik/jsonpost/packages/http"
	"github.com/abdul-hamid-achik/jsonpost/packages/logger"
	"github.com/abdul-hamid-achik/jsonpost/packages/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type postOptions struct {
	headers    []string
	data       string
	dataFile   string
	stream     bool
	timeout    time.Duration
	engine     string
	noParse    bool
	schemaFile string
	output     string
	requestID  bool
	configFile string
	envFile    string
	noColor    bool
	verbose    bool
	logLevel   string
	watch      bool
}

func newPostCmd() *cobra.Command {
	opts := &postOptions{}

	cmd := &cobra.Command{
		Use:   "post <url>",
		Short: "POST a JSON body and print the response",
		Long: `POST a JSON body to a URL and print the response parsed as JSON.

Settings are read from .jsonpost.yaml (or --config), JSONPOST_* environment
variables and flags, in increasing precedence. A .env file in the current
directory is loaded first when present.

Exit codes:
  0   2xx response, parsed successfully
  1   non-2xx response status
  2   response is not JSON or fails schema validation
  3   invalid URL, header, body or configuration
  4   network error
  5   timeout
  64  usage error

Examples:
  jsonpost post https://httpbin.org/post -d '{"name":"a"}'
  jsonpost post http://localhost:3000/items -H "Authorization: Bearer $TOKEN" --data-file item.json
  cat item.json | jsonpost post http://localhost:3000/items --data-file -
  jsonpost post http://localhost:3000/export --stream > export.json
  jsonpost post http://localhost:3000/items -d '{}' --schema item.schema.json -o json
  jsonpost post http://localhost:3000/items --data-file item.json --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&opts.headers, "header", "H", nil, `Request header as "Key: Value" (repeatable)`)
	f.StringVarP(&opts.data, "data", "d", "", "JSON request body")
	f.StringVar(&opts.dataFile, "data-file", "", "Read the JSON request body from a file (- for stdin)")
	f.BoolVar(&opts.stream, "stream", false, "Stream the response body to stdout instead of parsing it")
	f.DurationVar(&opts.timeout, "timeout", 0, "Request timeout (0 disables)")
	f.StringVar(&opts.engine, "engine", "", "Transfer engine (net, resty)")
	f.BoolVar(&opts.noParse, "no-parse", false, "Do not parse the response as JSON")
	f.StringVar(&opts.schemaFile, "schema", "", "Validate the response against a JSON Schema file")
	f.StringVarP(&opts.output, "output", "o", "", "Output format (console, json, yaml)")
	f.BoolVar(&opts.requestID, "request-id", false, "Send a generated "+http.RequestIDHeader+" header")
	f.StringVar(&opts.configFile, "config", "", "Config file (default: .jsonpost.yaml in the current directory)")
	f.StringVar(&opts.envFile, "env-file", "", "Load variables from a .env file")
	f.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Show transfer details")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.BoolVarP(&opts.watch, "watch", "w", false, "Post again whenever the data or schema file changes")

	return cmd
}

// postRun holds everything resolved once per invocation. Each call to once
// builds a fresh Builder, since a Builder posts only once.
type postRun struct {
	cmd       *cobra.Command
	url       string
	opts      *postOptions
	cfg       *config.Config
	log       *zap.Logger
	mode      http.Mode
	formatter output.Formatter
}

func runPost(cmd *cobra.Command, url string, opts *postOptions) error {
	if opts.data != "" && opts.dataFile != "" {
		return usageError(cmd, errors.New("--data and --data-file are mutually exclusive"))
	}
	if opts.watch && len(watchTargets(opts)) == 0 {
		return usageError(cmd, errors.New("--watch needs --data-file or --schema"))
	}

	envFile := opts.envFile
	if envFile == "" {
		if _, err := os.Stat(".env"); err == nil {
			envFile = ".env"
		}
	}
	if envFile != "" {
		if _, err := env.LoadAndExportDotEnv(envFile); err != nil {
			return configError(cmd, err)
		}
	}

	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return configError(cmd, err)
	}
	cfg = cfg.Merge(flagOverrides(cmd, opts))
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = int(opts.timeout.Milliseconds())
	}
	if err := cfg.Validate(); err != nil {
		return configError(cmd, err)
	}

	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	mode, err := http.ParseMode(cfg.Mode)
	if err != nil {
		return configError(cmd, err)
	}

	// In stream mode stdout carries the body, so the summary goes to stderr.
	summary := cmd.OutOrStdout()
	if mode == http.ModeStream {
		summary = cmd.ErrOrStderr()
	}
	formatter, err := output.NewFormatter(cfg.Output, summary, cfg.GetNoColor())
	if err != nil {
		return configError(cmd, err)
	}
	if cf, ok := formatter.(*output.ConsoleFormatter); ok && opts.verbose {
		output.WithVerbose(true)(cf)
		cf.FormatHeader(version)
	}

	run := &postRun{
		cmd:       cmd,
		url:       url,
		opts:      opts,
		cfg:       cfg,
		log:       log,
		mode:      mode,
		formatter: formatter,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run.once(ctx)
	if !opts.watch {
		return err
	}
	return run.watch(ctx)
}

// once reads the body and schema from disk, then performs a single POST.
func (r *postRun) once(ctx context.Context) error {
	body, err := readBody(r.cmd, r.opts)
	if err != nil {
		return usageError(r.cmd, err)
	}

	var schema []byte
	if r.opts.schemaFile != "" {
		schema, err = os.ReadFile(r.opts.schemaFile)
		if err != nil {
			return configError(r.cmd, fmt.Errorf("read schema: %w", err))
		}
	}

	builderOpts := []http.Option{
		http.WithEngine(newEngine(r.cfg, r.log)),
		http.WithTimeout(r.cfg.TimeoutDuration()),
		http.WithMode(r.mode),
		http.WithJSONParse(r.cfg.GetParseJSON()),
		http.WithLogger(r.log),
	}
	if r.mode == http.ModeStream {
		builderOpts = append(builderOpts, http.WithStreamSink(r.cmd.OutOrStdout()))
	}
	if schema != nil {
		builderOpts = append(builderOpts, http.WithSchema(schema))
	}
	if r.cfg.GetRequestID() {
		builderOpts = append(builderOpts, http.WithRequestID())
	}

	b := http.New(builderOpts...).Bind(r.url)
	for k, v := range r.cfg.Headers {
		b.AddHeader(k, os.ExpandEnv(v))
	}
	for _, line := range r.opts.headers {
		k, v, err := http.ParseHeaderLine(line)
		if err != nil {
			return usageError(r.cmd, fmt.Errorf("invalid header %q: %w", line, err))
		}
		b.AddHeader(k, v)
	}
	b.MaterializeHeaders()
	if body != nil {
		b.SetJSONBody(json.RawMessage(body))
	}

	r.log.Debug("resolved settings",
		zap.String("url", r.url),
		zap.String("mode", r.mode.String()),
		zap.String("engine", r.cfg.Engine),
	)
	resp, err := b.Post(ctx)
	if err != nil {
		r.formatter.FormatError(err)
		return &exitError{code: exitCodeFor(err), err: err}
	}

	return r.formatter.FormatResponse(r.url, resp)
}

// flagOverrides collects the flags the user actually set.
func flagOverrides(cmd *cobra.Command, opts *postOptions) *config.Config {
	flags := cmd.Flags()
	o := &config.Config{
		Engine:   opts.engine,
		Output:   opts.output,
		LogLevel: opts.logLevel,
	}
	if opts.stream {
		o.Mode = http.ModeStream.String()
	}
	if flags.Changed("no-parse") {
		o.ParseJSON = config.BoolPtr(!opts.noParse)
	}
	if flags.Changed("request-id") {
		o.RequestID = config.BoolPtr(opts.requestID)
	}
	if flags.Changed("no-color") {
		o.NoColor = config.BoolPtr(opts.noColor)
	}
	return o
}

func readBody(cmd *cobra.Command, opts *postOptions) ([]byte, error) {
	switch {
	case opts.data != "":
		return []byte(opts.data), nil
	case opts.dataFile == "-":
		return io.ReadAll(cmd.InOrStdin())
	case opts.dataFile != "":
		return os.ReadFile(opts.dataFile)
	}
	return nil, nil
}

func newEngine(cfg *config.Config, log *zap.Logger) http.Engine {
	if strings.EqualFold(cfg.Engine, "resty") {
		return http.NewRestyEngine(
			http.WithRestyLogger(log),
			http.WithRestyRedirects(cfg.GetFollowRedirects(), cfg.MaxRedirects),
		)
	}
	return http.NewNetEngine(
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithMaxRedirects(cfg.MaxRedirects),
	)
}

func exitCodeFor(err error) int {
	var (
		cfgErr     *http.ConfigError
		serErr     *http.SerializationError
		timeoutErr *http.TimeoutError
		transErr   *http.TransferError
		statusErr  *http.HTTPStatusError
		parseErr   *http.ResponseParseError
		schemaErr  *http.SchemaError
	)
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &serErr):
		return ExitConfigError
	case errors.As(err, &timeoutErr):
		return ExitTimeout
	case errors.As(err, &transErr):
		return ExitNetworkError
	case errors.As(err, &statusErr):
		return ExitStatusError
	case errors.As(err, &parseErr), errors.As(err, &schemaErr):
		return ExitParseError
	}
	return ExitUsageError
}

func configError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	return &exitError{code: ExitConfigError, err: err}
}

func usageError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	return &exitError{code: ExitUsageError, err: err}
}
