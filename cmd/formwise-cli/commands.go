package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	formwise "github.com/goliatone/go-formwise"
	"github.com/goliatone/go-formwise/pkg/editor"
	"github.com/goliatone/go-formwise/pkg/engine"
	"github.com/goliatone/go-formwise/pkg/messages"
	"github.com/goliatone/go-formwise/pkg/model"
	"github.com/goliatone/go-formwise/pkg/openapi"
	"github.com/goliatone/go-formwise/pkg/render"
	"github.com/goliatone/go-formwise/pkg/renderers/html"
	"github.com/goliatone/go-formwise/pkg/renderers/tui"
	"github.com/goliatone/go-formwise/pkg/submission"
	"github.com/goliatone/go-formwise/pkg/validation"
)

const maxFillRounds = 3

func (a *app) renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "render a form as HTML",
		ArgsUsage: "[form-id]",
		Flags: []cli.Flag{
			fileFlag(),
			outputFlag(),
			&cli.StringFlag{Name: "action", Usage: "submit target of the form element"},
			&cli.StringFlag{Name: "templates", Usage: "directory overriding the embedded templates"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt, err := a.setup(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			sess, err := rt.open(ctx, cmd, nil)
			if err != nil {
				return err
			}
			defer sess.Close()

			renderer, err := html.New(
				html.WithTemplatesDir(cmd.String("templates")),
				html.WithTheme(rt.theme()),
				html.WithTranslator(rt.translator, rt.cfg.Locale),
			)
			if err != nil {
				return err
			}
			registry := render.NewRegistry(renderer)

			opts := sess.RenderOptions()
			opts.Action = cmd.String("action")
			out, _, err := registry.Render(ctx, renderer.Name(), sess.View(), opts)
			if err != nil {
				return err
			}
			return a.writeOutput(cmd.String("output"), out)
		},
	}
}

func (a *app) fillCommand() *cli.Command {
	return &cli.Command{
		Name:      "fill",
		Usage:     "answer a form in the terminal and submit it",
		ArgsUsage: "[form-id]",
		Flags: []cli.Flag{
			fileFlag(),
			&cli.BoolFlag{Name: "dry-run", Usage: "print the submission envelope instead of sending it"},
			&cli.BoolFlag{Name: "confirm", Usage: "ask before submitting"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt, err := a.setup(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			var submitter engine.Submitter
			switch {
			case cmd.Bool("dry-run"):
				submitter = engine.SubmitterFunc(func(_ context.Context, _ string, payload submission.Payload) error {
					out, err := sonic.Marshal(payload.Envelope())
					if err != nil {
						return err
					}
					return a.writeOutput("", out)
				})
			case cmd.String("file") != "":
				c, err := rt.client()
				if err != nil {
					return err
				}
				submitter = c
			}

			sess, err := rt.open(ctx, cmd, submitter)
			if err != nil {
				return err
			}
			defer sess.Close()

			prompts := tui.New(
				tui.WithPromptDriver(a.driver),
				tui.WithValidator(sess.Contract()),
				tui.WithTranslator(rt.translator, rt.cfg.Locale),
				tui.WithConfirmSubmit(cmd.Bool("confirm")),
			)
			if err := fill(ctx, sess, prompts); err != nil {
				return err
			}
			if !cmd.Bool("dry-run") {
				fmt.Fprintln(a.out, messages.Format(rt.translator, rt.cfg.Locale, messages.SubmitSucceeded, nil))
			}
			return nil
		},
	}
}

// fill collects answers and submits them, asking again while the service
// rejects individual fields.
func fill(ctx context.Context, sess *engine.Session, prompts *tui.Renderer) error {
	opts := sess.RenderOptions()
	for round := 1; ; round++ {
		values, err := prompts.Collect(ctx, sess.View(), opts)
		if err != nil {
			return err
		}
		for _, input := range sess.View().Inputs {
			if err := sess.Set(input.Tag, values[input.Tag]); err != nil {
				return err
			}
		}

		_, err = sess.Submit(ctx)
		if err == nil {
			return nil
		}

		var submitErr *engine.SubmitError
		var invalid *validation.ValidationError
		retry := errors.As(err, &invalid) ||
			(errors.As(err, &submitErr) && (submitErr.Outcome.FieldScoped() || submitErr.Outcome.Retryable))
		if !retry || round >= maxFillRounds {
			return err
		}
		opts = sess.RenderOptions()
		if submitErr != nil {
			opts.Notice = submitErr.Outcome.Notice
		}
	}
}

func (a *app) validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "check an answers file against a form",
		ArgsUsage: "[form-id]",
		Flags: []cli.Flag{
			fileFlag(),
			&cli.StringFlag{Name: "answers", Aliases: []string{"a"}, Usage: "JSON answers object, optionally wrapped in {\"answers\": ...}", Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt, err := a.setup(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			sess, err := rt.open(ctx, cmd, nil)
			if err != nil {
				return err
			}
			defer sess.Close()

			var raw map[string]any
			if err := readJSON(cmd.String("answers"), &raw); err != nil {
				return err
			}
			if inner, ok := raw["answers"].(map[string]any); ok && len(raw) == 1 {
				raw = inner
			}

			form := sess.Form()
			values, err := submission.Decode(form, raw)
			if err != nil {
				return err
			}

			contract := sess.Contract()
			if err := contract.Validate(values); err != nil {
				var invalid *validation.ValidationError
				if !errors.As(err, &invalid) {
					return err
				}
				for _, field := range invalid.Fields {
					fmt.Fprintf(a.out, "%s: %s\n", field.Tag, field.Message)
				}
				return errInvalidForm
			}

			payload, err := submission.Normalize(form, values, submission.WithLogger(rt.logger))
			if err != nil {
				return err
			}
			if err := openapi.ValidatePayload(openapi.ContractSchema(form, contract), payload); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "ok: %d answers\n", payload.Len())
			return nil
		},
	}
}

func (a *app) schemaCommand() *cli.Command {
	return &cli.Command{
		Name:      "schema",
		Usage:     "print the OpenAPI document of a form's submit operation",
		ArgsUsage: "[form-id]",
		Flags: []cli.Flag{
			fileFlag(),
			outputFlag(),
			&cli.StringFlag{Name: "server", Usage: "server URL listed in the document"},
			&cli.StringFlag{Name: "format", Value: "json", Usage: "json or yaml"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt, err := a.setup(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			sess, err := rt.open(ctx, cmd, nil)
			if err != nil {
				return err
			}
			defer sess.Close()

			server := cmd.String("server")
			if server == "" {
				server = rt.cfg.API.BaseURL
			}
			doc, err := openapi.Document(sess.Form(), openapi.WithServer(server))
			if err != nil {
				return err
			}
			data, err := doc.MarshalJSON()
			if err != nil {
				return err
			}

			switch strings.ToLower(cmd.String("format")) {
			case "json":
			case "yaml", "yml":
				var tree any
				if err := sonic.Unmarshal(data, &tree); err != nil {
					return err
				}
				if data, err = yaml.Marshal(tree); err != nil {
					return err
				}
			default:
				return fmt.Errorf("formwise: unknown format %q", cmd.String("format"))
			}
			return a.writeOutput(cmd.String("output"), data)
		},
	}
}

func (a *app) editCommand() *cli.Command {
	return &cli.Command{
		Name:  "edit",
		Usage: "apply a JSON Patch to a form definition file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "form definition file", Required: true},
			&cli.StringFlag{Name: "patch", Aliases: []string{"p"}, Usage: "RFC 6902 patch document", Required: true},
			&cli.StringSliceFlag{Name: "allow", Usage: "JSON pointers the patch may touch (\"*\" matches a segment)"},
			&cli.BoolFlag{Name: "lenient", Usage: "replace missing paths by adding them"},
			&cli.IntFlag{Name: "max-fields", Usage: "maximum number of fields"},
			outputFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt, err := a.setup(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			form, err := formwise.ReadForm(cmd.String("file"))
			if err != nil {
				return err
			}
			var ops []editor.Operation
			if err := readJSON(cmd.String("patch"), &ops); err != nil {
				return err
			}

			opts := []editor.Option{
				editor.WithLogger(rt.logger),
				editor.WithLimits(model.ServiceConfig{MaxFields: int(cmd.Int("max-fields"))}),
			}
			if allowed := cmd.StringSlice("allow"); len(allowed) > 0 {
				opts = append(opts, editor.WithAllowedPaths(allowed...))
			}
			if cmd.Bool("lenient") {
				opts = append(opts, editor.WithLenient())
			}

			edited, err := editor.ApplyOperations(form, ops, opts...)
			if err != nil {
				return err
			}
			out, err := sonic.ConfigStd.MarshalIndent(edited, "", "  ")
			if err != nil {
				return err
			}
			return a.writeOutput(cmd.String("output"), out)
		},
	}
}

func (a *app) listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list the forms owned by the token holder",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt, err := a.setup(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			c, err := rt.client()
			if err != nil {
				return err
			}
			forms, err := c.ListForms(ctx)
			if err != nil {
				return err
			}
			sort.SliceStable(forms, func(i, j int) bool { return forms[i].ID < forms[j].ID })

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tACTIVE\tRESPONSES")
			for _, form := range forms {
				fmt.Fprintf(w, "%s\t%s\t%t\t%d\n", form.ID, form.Title, form.IsActive, form.ResponseCount)
			}
			return w.Flush()
		},
	}
}
