package openapi

import (
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formwise/pkg/model"
)

// DocumentOption customises Document.
type DocumentOption func(*documentConfig)

type documentConfig struct {
	version string
	server  string
}

// WithVersion sets info.version. Defaults to "1.0.0".
func WithVersion(version string) DocumentOption {
	return func(c *documentConfig) {
		if v := strings.TrimSpace(version); v != "" {
			c.version = v
		}
	}
}

// WithServer adds the base URL of the form service.
func WithServer(url string) DocumentOption {
	return func(c *documentConfig) {
		c.server = strings.TrimRight(strings.TrimSpace(url), "/")
	}
}

// SubmitPath is the submit endpoint of the form service.
const SubmitPath = "/v1/forms/{id}/submit"

// Document builds an OpenAPI document with the submit operation of form.
func Document(form model.FormDefinition, opts ...DocumentOption) (*openapi3.T, error) {
	cfg := documentConfig{version: "1.0.0"}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	answers, err := SubmissionSchema(form)
	if err != nil {
		return nil, err
	}

	detail := openapi3.NewObjectSchema().WithAdditionalProperties(openapi3.NewStringSchema())
	fieldErrors := openapi3.NewObjectSchema().WithProperty("detail", detail)
	message := openapi3.NewObjectSchema().WithProperty("detail", openapi3.NewStringSchema())

	op := openapi3.NewOperation()
	op.OperationID = "submit_" + operationSuffix(form.ID)
	op.Summary = "Submit answers to " + form.Title
	op.Parameters = openapi3.Parameters{
		{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema().WithEnum(form.ID))},
	}
	op.RequestBody = &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(EnvelopeSchema(answers)),
	}
	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusCreated, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("Submission stored"),
		}),
		openapi3.WithStatus(http.StatusBadRequest, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("Field errors or a rejected form").WithJSONSchema(fieldErrors),
		}),
		openapi3.WithStatus(http.StatusTooManyRequests, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("Rate limited").WithJSONSchema(message),
		}),
	)

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       form.Title,
			Description: form.Description,
			Version:     cfg.version,
		},
		Paths: openapi3.NewPaths(openapi3.WithPath(SubmitPath, &openapi3.PathItem{Post: op})),
	}
	if cfg.server != "" {
		doc.Servers = openapi3.Servers{{URL: cfg.server}}
	}
	return doc, nil
}

func operationSuffix(id string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(id) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "form"
	}
	return b.String()
}
