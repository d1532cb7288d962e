package catalog

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/webbench/internal/stresstest"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{"health", CategoryHealth, false},
		{"REST", CategoryREST, false},
		{" graphql ", CategoryGraphQL, false},
		{"all", CategoryAll, false},
		{"websocket", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownCategory)
				assert.ErrorIs(t, err, stresstest.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_SingleCategories(t *testing.T) {
	c := New(nil)

	tests := []struct {
		category    Category
		label       string
		method      string
		path        string
		body        string
		concurrency int
		requests    int
	}{
		{CategoryHealth, "Health Check", http.MethodGet, "/health", "", 100, 1000},
		{CategoryREST, "Create Product", http.MethodPost, "/api/products", ProductBody, 50, 500},
		{CategoryGraphQL, "GraphQL Query", http.MethodPost, "/graphql", ProductsQuery, 30, 300},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			plans, err := c.Resolve(tt.category)
			require.NoError(t, err)
			require.Len(t, plans, 2)

			assert.Equal(t, "Axum", plans[0].Framework)
			assert.Equal(t, "http://localhost:3000", plans[0].Target.BaseURL)
			assert.Equal(t, "ActixWeb", plans[1].Framework)
			assert.Equal(t, "http://localhost:3001", plans[1].Target.BaseURL)

			for _, p := range plans {
				assert.Equal(t, tt.label, p.Target.Label)
				assert.Equal(t, tt.method, p.Target.Method)
				assert.Equal(t, tt.path, p.Target.Path)
				assert.Equal(t, tt.body, p.Target.Body)
				assert.Equal(t, tt.concurrency, p.Config.Concurrency)
				assert.Equal(t, tt.requests, p.Config.TotalRequests)
			}
		})
	}
}

func TestResolve_AllConcatenatesInOrder(t *testing.T) {
	c := New(nil)

	all, err := c.Resolve(CategoryAll)
	require.NoError(t, err)

	var want []Plan
	for _, cat := range []Category{CategoryHealth, CategoryREST, CategoryGraphQL} {
		plans, err := c.Resolve(cat)
		require.NoError(t, err)
		want = append(want, plans...)
	}
	assert.Equal(t, want, all)

	seen := make(map[string]bool)
	for _, p := range all {
		key := p.Framework + "|" + p.Target.Label
		assert.False(t, seen[key], "duplicate plan %s", key)
		seen[key] = true
	}
}

func TestResolve_ConfiguredServers(t *testing.T) {
	c := New([]Server{
		{Name: "Gin", BaseURL: "http://127.0.0.1:8080"},
		{Name: "Echo", BaseURL: "http://127.0.0.1:8081"},
		{Name: "Fiber", BaseURL: "http://127.0.0.1:8082"},
	})

	plans, err := c.Resolve(CategoryHealth)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, "Fiber", plans[2].Framework)
	assert.Equal(t, "http://127.0.0.1:8082/health", plans[2].Target.URL())
}

func TestResolve_Errors(t *testing.T) {
	_, err := New(nil).Resolve(Category("soap"))
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = New([]Server{{Name: "Axum"}}).Resolve(CategoryHealth)
	assert.ErrorIs(t, err, stresstest.ErrConfiguration)
}

func TestBaseURLs_Distinct(t *testing.T) {
	c := New([]Server{
		{Name: "a", BaseURL: "http://x"},
		{Name: "b", BaseURL: "http://y"},
		{Name: "c", BaseURL: "http://x"},
	})
	assert.Equal(t, []string{"http://x", "http://y"}, c.BaseURLs())
}

func TestApplyOverrides(t *testing.T) {
	plans, err := New(nil).Resolve(CategoryAll)
	require.NoError(t, err)

	t.Run("no overrides keep defaults", func(t *testing.T) {
		got, err := ApplyOverrides(plans, Overrides{})
		require.NoError(t, err)
		assert.Equal(t, plans, got)
	})

	t.Run("set fields replace defaults", func(t *testing.T) {
		requests := 10
		timeout := 2 * time.Second
		got, err := ApplyOverrides(plans, Overrides{TotalRequests: &requests, RequestTimeout: &timeout})
		require.NoError(t, err)
		for i, p := range got {
			assert.Equal(t, 10, p.Config.TotalRequests)
			assert.Equal(t, plans[i].Config.Concurrency, p.Config.Concurrency)
			assert.Equal(t, timeout, p.Config.RequestTimeout)
		}
		assert.Equal(t, 1000, plans[0].Config.TotalRequests, "input plans are not modified")
	})

	t.Run("zero requests is a configuration error", func(t *testing.T) {
		zero := 0
		_, err := ApplyOverrides(plans, Overrides{TotalRequests: &zero})
		assert.ErrorIs(t, err, stresstest.ErrConfiguration)
	})

	t.Run("negative concurrency is a configuration error", func(t *testing.T) {
		negative := -4
		_, err := ApplyOverrides(plans, Overrides{Concurrency: &negative})
		assert.ErrorIs(t, err, stresstest.ErrConfiguration)
	})
}

func TestDefaults(t *testing.T) {
	cfg, ok := Defaults(CategoryGraphQL)
	require.True(t, ok)
	assert.Equal(t, 30, cfg.Concurrency)
	assert.Equal(t, 300, cfg.TotalRequests)

	_, ok = Defaults(CategoryAll)
	assert.False(t, ok)
}
