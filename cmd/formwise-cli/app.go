package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	theme "github.com/goliatone/go-theme"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	formwise "github.com/goliatone/go-formwise"
	"github.com/goliatone/go-formwise/internal/config"
	"github.com/goliatone/go-formwise/internal/locale"
	"github.com/goliatone/go-formwise/internal/logging"
	"github.com/goliatone/go-formwise/pkg/cache"
	"github.com/goliatone/go-formwise/pkg/client"
	"github.com/goliatone/go-formwise/pkg/engine"
	"github.com/goliatone/go-formwise/pkg/renderers/html"
	"github.com/goliatone/go-formwise/pkg/renderers/tui"
)

var (
	errNoForm      = errors.New("formwise: pass a form id or --file")
	errNoServer    = errors.New("formwise: no service configured (set api.base_url or --base-url)")
	errInvalidForm = errors.New("formwise: answers failed validation")
)

// app holds the process level dependencies; tests replace them.
type app struct {
	out        io.Writer
	driver     tui.PromptDriver
	httpClient *http.Client
}

func newApp(a *app) *cli.Command {
	if a.out == nil {
		a.out = os.Stdout
	}
	return &cli.Command{
		Name:  "formwise",
		Usage: "render, fill and inspect forms served by a form service",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file"},
			&cli.StringFlag{Name: "base-url", Usage: "form service base URL"},
			&cli.StringFlag{Name: "token", Usage: "bearer token for owner operations"},
			&cli.StringFlag{Name: "locale", Usage: "message locale (en, es)"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "development logging at debug level"},
		},
		Commands: []*cli.Command{
			a.renderCommand(),
			a.fillCommand(),
			a.validateCommand(),
			a.schemaCommand(),
			a.editCommand(),
			a.listCommand(),
		},
	}
}

// runtime is the per invocation state derived from flags and config.
type runtime struct {
	app        *app
	cfg        config.Config
	logger     *zap.Logger
	translator *locale.Translator
}

func (a *app) setup(cmd *cli.Command) (*runtime, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(cmd.String("base-url")); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(cmd.String("token")); v != "" {
		cfg.API.Token = v
	}
	if v := strings.TrimSpace(cmd.String("locale")); v != "" {
		cfg.Locale = v
	}
	if cmd.Bool("verbose") {
		cfg.Log = config.Log{Level: "debug", Development: true}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	translator := locale.Default()
	if len(cfg.MessageFiles) > 0 {
		translator, err = locale.New(locale.WithMessageFiles(cfg.MessageFiles...))
		if err != nil {
			return nil, err
		}
	}
	return &runtime{app: a, cfg: cfg, logger: logger, translator: translator}, nil
}

func (rt *runtime) client() (*client.Client, error) {
	if rt.cfg.API.BaseURL == "" {
		return nil, errNoServer
	}
	return client.New(rt.cfg.API.BaseURL,
		client.WithHTTPClient(rt.app.httpClient),
		client.WithTimeout(rt.cfg.API.Timeout),
		client.WithToken(rt.cfg.API.Token),
		client.WithLogger(rt.logger),
	)
}

func (rt *runtime) engine(options ...engine.Option) *engine.Engine {
	base := []engine.Option{
		engine.WithLogger(rt.logger),
		engine.WithTranslator(rt.translator, rt.cfg.Locale),
	}
	return engine.New(append(base, options...)...)
}

// open prepares a session for --file or for the form id argument. Forms
// fetched from the service go through the definition cache.
func (rt *runtime) open(ctx context.Context, cmd *cli.Command, submitter engine.Submitter) (*engine.Session, error) {
	if path := cmd.String("file"); path != "" {
		form, err := formwise.ReadForm(path)
		if err != nil {
			return nil, err
		}
		return rt.engine(engine.WithSubmitter(submitter)).Prepare(form)
	}

	id := strings.TrimSpace(cmd.Args().First())
	if id == "" {
		return nil, errNoForm
	}
	c, err := rt.client()
	if err != nil {
		return nil, err
	}
	if submitter == nil {
		submitter = c
	}
	source := cache.New(c, cache.WithTTL(rt.cfg.Cache.TTL), cache.WithLogger(rt.logger))
	return rt.engine(engine.WithSource(source), engine.WithSubmitter(submitter)).Open(ctx, id)
}

func (rt *runtime) theme() *theme.RendererConfig {
	t := rt.cfg.Theme
	if t.Name == "" && len(t.CSSVars) == 0 {
		return nil
	}
	tokens := make(map[string]string, len(t.CSSVars))
	for key, value := range t.CSSVars {
		tokens[strings.TrimPrefix(key, "--")] = value
	}
	manifest := &theme.Manifest{Name: t.Name, Tokens: tokens}
	if t.Variant != "" {
		manifest.Variants = map[string]theme.Variant{t.Variant: {}}
	}
	return html.ThemeConfig(manifest, t.Variant)
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("formwise: read %s: %w", path, err)
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("formwise: decode %s: %w", path, err)
	}
	return nil
}

// writeOutput writes data to path, or to the app output when path is empty.
func (a *app) writeOutput(path string, data []byte) error {
	if path == "" {
		if _, err := a.out.Write(data); err != nil {
			return err
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			_, err := io.WriteString(a.out, "\n")
			return err
		}
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("formwise: write %s: %w", path, err)
	}
	return nil
}

func fileFlag() cli.Flag {
	return &cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "form definition file (JSON or YAML) instead of a form id"}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file (stdout if empty)"}
}

func (rt *runtime) close() {
	_ = rt.logger.Sync()
}
