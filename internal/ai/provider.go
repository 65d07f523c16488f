// Package ai implements the structured extraction callers. Two
// interchangeable providers (OpenAI and AWS Bedrock) sit behind one
// interface and are selected by name from a registry built once at
// startup. The package has no knowledge of real child names; callers
// anonymize before invoking it.
package ai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformedResponse is returned when a provider answers but the body
// does not conform to the extraction schema. No partial result is ever
// returned alongside it.
var ErrMalformedResponse = errors.New("malformed provider response")

// Provider is a structured-extraction and vision-OCR capable AI client.
// Implementations do not retry; retry policy belongs to the caller.
type Provider interface {
	// Name returns the registry key ("openai", "bedrock").
	Name() string

	// ExtractActions runs one extraction pass over the anonymized email.
	// The raw response body is returned for archival. On any provider,
	// network, or schema error the result is nil.
	ExtractActions(ctx context.Context, req ExtractionRequest) (*ExtractionResult, []byte, error)

	// TranscribeImage performs vision OCR over a single image and returns
	// the transcribed text. A "no readable text" answer is a valid,
	// non-error result.
	TranscribeImage(ctx context.Context, imageData []byte, mimeType string) (string, error)
}

// Registry holds the configured providers. Built once in main and passed
// to the components that need it; there are no package-level singletons.
type Registry struct {
	providers   map[string]Provider
	defaultName string
}

// NewRegistry builds a registry from the given providers. The first
// provider becomes the default.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		if p == nil {
			continue
		}
		name := strings.ToLower(p.Name())
		if _, dup := r.providers[name]; dup {
			continue
		}
		r.providers[name] = p
		if r.defaultName == "" {
			r.defaultName = name
		}
	}
	return r
}

// Get returns the provider registered under name. An empty name selects
// the default provider.
func (r *Registry) Get(name string) (Provider, error) {
	if name == "" {
		name = r.defaultName
	}
	p, ok := r.providers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown AI provider %q", name)
	}
	return p, nil
}

// Fallback returns a configured provider other than name, used as the
// second OCR attempt for images. Returns nil when only one provider is
// configured.
func (r *Registry) Fallback(name string) Provider {
	name = strings.ToLower(name)
	keys := make([]string, 0, len(r.providers))
	for k := range r.providers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k != name {
			return r.providers[k]
		}
	}
	return nil
}

// Names lists the registered provider names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for k := range r.providers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
