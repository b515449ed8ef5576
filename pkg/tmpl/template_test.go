package tmpl_test

import (
	"os"
	"path/filepath"
	"testing"

	minijinja "github.com/mitsuhiko/minijinja/minijinja-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/261016-go-bin-tplr/pkg/tmpl"
)

func TestRender(t *testing.T) {
	data := map[string]any{
		"name": "World",
		"server": map[string]any{
			"host": "localhost",
			"port": 8080,
		},
		"items":   []any{"a", "b", "c"},
		"enabled": true,
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			name:     "simple variable",
			template: `Hello, {{ name }}!`,
			want:     "Hello, World!",
		},
		{
			name:     "nested access",
			template: `{{ server.host }}:{{ server.port }}`,
			want:     "localhost:8080",
		},
		{
			name:     "subscript access",
			template: `{{ items[1] }} {{ server["host"] }}`,
			want:     "b localhost",
		},
		{
			name:     "for loop",
			template: `{% for item in items %}[{{ item }}]{% endfor %}`,
			want:     "[a][b][c]",
		},
		{
			name:     "conditional",
			template: `{% if enabled %}on{% else %}off{% endif %}`,
			want:     "on",
		},
		{
			name:     "builtin filter",
			template: `{{ name | upper }} {{ items | join(",") }}`,
			want:     "WORLD a,b,c",
		},
		{
			name:     "optional variable via default",
			template: `{{ missing | default("fallback") }}`,
			want:     "fallback",
		},
		{
			name:     "defined test",
			template: `{% if missing is defined %}yes{% else %}no{% endif %}`,
			want:     "no",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tmpl.Render(tt.template, data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_LiteralPassthrough(t *testing.T) {
	text := "no placeholders here\n  indented line\n\ttab"

	for _, data := range []map[string]any{nil, {}, {"x": 1}} {
		got, err := tmpl.Render(text, data)
		require.NoError(t, err)
		assert.Equal(t, text, got)
	}
}

func TestRender_TrailingNewline(t *testing.T) {
	got, err := tmpl.Render("Hello, {{ name }}!\n", map[string]any{"name": "World"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", got)
}

func TestRender_UndefinedPolicy(t *testing.T) {
	tests := []struct {
		name     string
		template string
		lazy     bool
		want     string
		wantErr  bool
	}{
		{
			name:     "strict missing variable",
			template: `{{ missing }}`,
			wantErr:  true,
		},
		{
			name:     "lazy missing variable",
			template: `{{ missing }}`,
			lazy:     true,
			want:     "",
		},
		{
			name:     "strict missing attribute",
			template: `{{ server.missing }}`,
			wantErr:  true,
		},
		{
			name:     "lazy missing nested variable",
			template: `a{{ missing.deeper }}b`,
			lazy:     true,
			want:     "ab",
		},
		{
			name:     "lazy missing in conditional",
			template: `{% if missing %}yes{% else %}no{% endif %}`,
			lazy:     true,
			want:     "no",
		},
		{
			name:     "strict missing in conditional",
			template: `{% if missing %}yes{% endif %}`,
			wantErr:  true,
		},
		{
			name:     "strict missing in loop",
			template: `{% for x in missing %}{{ x }}{% endfor %}`,
			wantErr:  true,
		},
		{
			name:     "lazy keeps present values",
			template: `{{ present }}-{{ missing }}`,
			lazy:     true,
			want:     "here-",
		},
		{
			name:     "lazy keeps placeholder-like data",
			template: `x={{ v }} y={{ missing }}`,
			lazy:     true,
			want:     "x=<no value> y=",
		},
		{
			name:     "lazy keeps placeholder-like template text",
			template: `<no value>{{ missing }}`,
			lazy:     true,
			want:     "<no value>",
		},
	}

	data := map[string]any{
		"present": "here",
		"v":       "<no value>",
		"server":  map[string]any{"host": "localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tmpl.Render(tt.template, data, tmpl.WithLazy(tt.lazy))
			if tt.wantErr {
				require.Error(t, err)
				var mjErr *minijinja.Error
				require.ErrorAs(t, err, &mjErr)
				assert.Equal(t, minijinja.ErrUndefinedVar, mjErr.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_FormatIndependence(t *testing.T) {
	// YAML 解析为 int，JSON 解析为 float64，输出应一致
	fromYAML := map[string]any{"count": 3, "name": "x"}
	fromJSON := map[string]any{"count": float64(3), "name": "x"}

	text := `{{ name }}={{ count }}`

	a, err := tmpl.Render(text, fromYAML)
	require.NoError(t, err)
	b, err := tmpl.Render(text, fromJSON)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRender_NoAutoEscape(t *testing.T) {
	got, err := tmpl.Render(`{{ tag }}`, map[string]any{"tag": "<b>&</b>"}, tmpl.WithName("page.html"))
	require.NoError(t, err)
	assert.Equal(t, "<b>&</b>", got)
}

func TestRender_WithName(t *testing.T) {
	_, err := tmpl.Render(`{{ missing }}`, nil, tmpl.WithName("greeting.tmpl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "greeting.tmpl")
}

func TestTemplateFilter_required(t *testing.T) {
	got, err := tmpl.Render(`{{ name | required("name is required") }}`, map[string]any{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	for _, lazy := range []bool{false, true} {
		_, err = tmpl.Render(`{{ name | required("name is required") }}`, nil, tmpl.WithLazy(lazy))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name is required")
	}
}

func TestTemplateFunction_env(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")

	tests := []struct {
		name     string
		template string
		want     string
		wantErr  bool
	}{
		{
			name:     "env function with existing var",
			template: `{{ env("TEST_VAR") }}`,
			want:     "test-value",
		},
		{
			name:     "env function with missing var",
			template: `{{ env("MISSING_VAR") }}`,
			want:     "",
		},
		{
			name:     "env function with default",
			template: `{{ env("MISSING_VAR", "default-value") }}`,
			want:     "default-value",
		},
		{
			name:     "env function without name",
			template: `{{ env() }}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tmpl.Render(tt.template, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTemplateFunction_coalesce(t *testing.T) {
	t.Setenv("VAR1", "value1")

	tests := []struct {
		name     string
		template string
		data     map[string]any
		want     string
	}{
		{
			name:     "coalesce returns first non-empty",
			template: `{{ coalesce("", "second", "third") }}`,
			want:     "second",
		},
		{
			name:     "coalesce with all empty",
			template: `{{ coalesce("", "", "") }}`,
			want:     "",
		},
		{
			name:     "coalesce with env vars",
			template: `{{ coalesce(env("MISSING1"), env("VAR1"), "default") }}`,
			want:     "value1",
		},
		{
			name:     "coalesce skips missing and null data",
			template: `{{ coalesce(missing, empty, fallback, "default") }}`,
			data:     map[string]any{"empty": nil, "fallback": "from-data"},
			want:     "from-data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tmpl.Render(tt.template, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// 错误场景测试
// =============================================================================

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name     string
		template string
		errMsg   string
	}{
		{
			name:     "unclosed expression",
			template: `{{ env("VAR")`,
			errMsg:   "parse template",
		},
		{
			name:     "unterminated for",
			template: `{% for x in items %}x`,
			errMsg:   "parse template",
		},
		{
			name:     "unknown filter",
			template: `{{ "x" | nope }}`,
			errMsg:   "unknown filter",
		},
		{
			name:     "unknown function",
			template: `{{ nope("x") }}`,
			errMsg:   "unknown function",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tmpl.Render(tt.template, nil, tmpl.WithLazy(true))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.tmpl")
	content := "Hello, {{ name }}!\n\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := tmpl.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = tmpl.LoadFile(filepath.Join(dir, "missing.tmpl"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
