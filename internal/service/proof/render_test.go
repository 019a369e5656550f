package proof

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "prooftree/internal/domain/models/proof"
)

func TestRenderText(t *testing.T) {
	root, err := BuildTree(map[string]any{
		"step": "T",
		"children": []any{
			map[string]any{"step": "A", "children": []any{
				map[string]any{"step": "A1", "is_leaf": true},
			}},
			map[string]any{"step": "B", "is_leaf": true},
		},
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		outcomes map[string]models.Outcome
		want     string
	}{
		{
			name: "plain",
			want: "root T\n" +
				"├── root_0 A\n" +
				"│   └── root_0_0 A1 (leaf)\n" +
				"└── root_1 B (leaf)",
		},
		{
			name: "with outcomes",
			outcomes: OutcomesByID([]models.ProcessedNode{
				{ID: "root", ValidationResult: models.Failure()},
				{ID: "root_0", ValidationResult: models.Success()},
			}),
			want: "root T [failure]\n" +
				"├── root_0 A [success]\n" +
				"│   └── root_0_0 A1 (leaf)\n" +
				"└── root_1 B (leaf)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderText(root, tt.outcomes))
		})
	}
}

func TestRenderTextNestedContinuation(t *testing.T) {
	root, err := BuildTree(map[string]any{
		"step": "T",
		"children": []any{
			map[string]any{"step": "A", "children": []any{
				map[string]any{"step": "A1", "children": []any{
					map[string]any{"step": "A1a"},
				}},
				map[string]any{"step": "A2"},
			}},
		},
	})
	require.NoError(t, err)

	want := "root T\n" +
		"└── root_0 A\n" +
		"    ├── root_0_0 A1\n" +
		"    │   └── root_0_0_0 A1a\n" +
		"    └── root_0_1 A2"
	assert.Equal(t, want, RenderText(root, nil))
}

func TestRenderTextNil(t *testing.T) {
	assert.Empty(t, RenderText(nil, nil))
}
