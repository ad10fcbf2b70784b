package tui

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/aretw0/atelier/pkg/compose"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanMarkdown(t *testing.T) {
	req := domain.RenderRequest{
		TokenID: 42,
		Skin:    domain.Skin{ID: "2", Name: "Dark"},
		Traits:  domain.TraitSet{"EYES": "12"},
	}
	plan, err := compose.New().Compose(context.Background(), req)
	require.NoError(t, err)

	md := PlanMarkdown(plan, "0196c98bc6003bf0")
	assert.Contains(t, md, "# Token 42")
	assert.Contains(t, md, "`0196c98bc6003bf0`")
	assert.Contains(t, md, "| EYES | 12 | local | `labimages/12.svg` |")
	assert.NotContains(t, md, "Failed serum")
}

func TestNewRenderer_PlainWhenNotTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	out, err := NewRenderer(f)("# title")
	require.NoError(t, err)
	assert.Equal(t, "# title", out)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "__ _| |_ ___| (_)")
}
