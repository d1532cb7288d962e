package catalog

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/studiowebux/webbench/internal/stresstest"
	"github.com/studiowebux/webbench/internal/types"
)

// Category names a benchmark group
type Category string

const (
	CategoryHealth  Category = "health"
	CategoryREST    Category = "rest"
	CategoryGraphQL Category = "graphql"
	CategoryAll     Category = "all"
)

// ErrUnknownCategory is returned for category names outside the catalog
var ErrUnknownCategory = fmt.Errorf("%w: unknown benchmark category", stresstest.ErrConfiguration)

const (
	// ProductBody is the payload sent by the REST benchmark
	ProductBody = `{"name":"Test Product","description":"A test product for benchmarking","price":1999,"inventory":100}`

	// ProductsQuery is the payload sent by the GraphQL benchmark
	ProductsQuery = `{"query":"{ products { id name price inventory } }"}`
)

// Server is one framework under test
type Server struct {
	Name    string `mapstructure:"name" yaml:"name" json:"name"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
}

// DefaultServers returns the frameworks compared when nothing is configured
func DefaultServers() []Server {
	return []Server{
		{Name: "Axum", BaseURL: "http://localhost:3000"},
		{Name: "ActixWeb", BaseURL: "http://localhost:3001"},
	}
}

// Plan is one benchmark run: a framework, what to hit, and how hard
type Plan struct {
	Framework string
	Target    types.EndpointTarget
	Config    types.BenchmarkConfig
}

// endpoint is a category's target without the server part
type endpoint struct {
	label    string
	method   string
	path     string
	body     string
	defaults types.BenchmarkConfig
}

var endpoints = map[Category]endpoint{
	CategoryHealth: {
		label:    "Health Check",
		method:   http.MethodGet,
		path:     "/health",
		defaults: types.BenchmarkConfig{Concurrency: 100, TotalRequests: 1000},
	},
	CategoryREST: {
		label:    "Create Product",
		method:   http.MethodPost,
		path:     "/api/products",
		body:     ProductBody,
		defaults: types.BenchmarkConfig{Concurrency: 50, TotalRequests: 500},
	},
	CategoryGraphQL: {
		label:    "GraphQL Query",
		method:   http.MethodPost,
		path:     "/graphql",
		body:     ProductsQuery,
		defaults: types.BenchmarkConfig{Concurrency: 30, TotalRequests: 300},
	},
}

// expansion lists the concrete categories each name stands for, in run order
var expansion = map[Category][]Category{
	CategoryHealth:  {CategoryHealth},
	CategoryREST:    {CategoryREST},
	CategoryGraphQL: {CategoryGraphQL},
	CategoryAll:     {CategoryHealth, CategoryREST, CategoryGraphQL},
}

// Categories returns every valid category name
func Categories() []Category {
	return []Category{CategoryHealth, CategoryREST, CategoryGraphQL, CategoryAll}
}

// ParseCategory converts a user supplied name
func ParseCategory(name string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := expansion[c]; !ok {
		return "", fmt.Errorf("%w %q (expected one of %s)", ErrUnknownCategory, name, categoryList())
	}
	return c, nil
}

// Defaults returns the default load parameters of a concrete category
func Defaults(c Category) (types.BenchmarkConfig, bool) {
	ep, ok := endpoints[c]
	return ep.defaults, ok
}

// Catalog resolves categories against a set of servers
type Catalog struct {
	servers []Server
}

// New creates a catalog. Nil or empty servers fall back to DefaultServers.
func New(servers []Server) *Catalog {
	if len(servers) == 0 {
		servers = DefaultServers()
	}
	return &Catalog{servers: append([]Server(nil), servers...)}
}

// Servers returns the servers under test
func (c *Catalog) Servers() []Server {
	return append([]Server(nil), c.servers...)
}

// BaseURLs returns the distinct server base URLs in order
func (c *Catalog) BaseURLs() []string {
	seen := make(map[string]bool, len(c.servers))
	var urls []string
	for _, s := range c.servers {
		if !seen[s.BaseURL] {
			seen[s.BaseURL] = true
			urls = append(urls, s.BaseURL)
		}
	}
	return urls
}

// Resolve returns the plans of a category: one per server per concrete
// category, grouped by category.
func (c *Catalog) Resolve(category Category) ([]Plan, error) {
	cats, ok := expansion[category]
	if !ok {
		return nil, fmt.Errorf("%w %q (expected one of %s)", ErrUnknownCategory, category, categoryList())
	}

	for _, s := range c.servers {
		if s.Name == "" || s.BaseURL == "" {
			return nil, fmt.Errorf("%w: server entries need both a name and a base_url", stresstest.ErrConfiguration)
		}
	}

	plans := make([]Plan, 0, len(cats)*len(c.servers))
	for _, cat := range cats {
		ep := endpoints[cat]
		for _, s := range c.servers {
			plans = append(plans, Plan{
				Framework: s.Name,
				Target: types.EndpointTarget{
					Label:   ep.label,
					BaseURL: s.BaseURL,
					Path:    ep.path,
					Method:  ep.method,
					Body:    ep.body,
				},
				Config: ep.defaults,
			})
		}
	}
	return plans, nil
}

// Overrides holds load parameters supplied on the command line.
// Nil fields keep the category default.
type Overrides struct {
	Concurrency    *int
	TotalRequests  *int
	RequestTimeout *time.Duration
	MaxRPS         *float64
}

// ApplyOverrides returns plans with the set overrides applied and validated
func ApplyOverrides(plans []Plan, o Overrides) ([]Plan, error) {
	out := make([]Plan, len(plans))
	for i, p := range plans {
		if o.Concurrency != nil {
			p.Config.Concurrency = *o.Concurrency
		}
		if o.TotalRequests != nil {
			p.Config.TotalRequests = *o.TotalRequests
		}
		if o.RequestTimeout != nil {
			p.Config.RequestTimeout = *o.RequestTimeout
		}
		if o.MaxRPS != nil {
			p.Config.MaxRPS = *o.MaxRPS
		}
		if err := stresstest.ValidateConfig(p.Config); err != nil {
			return nil, fmt.Errorf("%s %s: %w", p.Framework, p.Target.Label, err)
		}
		out[i] = p
	}
	return out, nil
}

func categoryList() string {
	names := make([]string, 0, len(expansion))
	for _, c := range Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
