// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/auditlogic/internal/model"
)

// =============================================================================
// RISK COLOR TESTS
// =============================================================================

func TestRiskColors(t *testing.T) {
	tests := []struct {
		level model.RiskLevel
		bg    lipgloss.AdaptiveColor
		fg    lipgloss.AdaptiveColor
	}{
		{model.RiskExtreme, RiskExtremeBg, RiskLightFg},
		{model.RiskHigh, RiskHighBg, RiskLightFg},
		{model.RiskModerate, RiskModerateBg, RiskDarkFg},
		{model.RiskLow, RiskNeutralBg, RiskGrayFg},
		{"Cosmic", RiskNeutralBg, RiskGrayFg},
		{"", RiskNeutralBg, RiskGrayFg},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			bg, fg := RiskColors(tt.level)
			assert.Equal(t, tt.bg, bg)
			assert.Equal(t, tt.fg, fg)
		})
	}
}

func TestRenderRiskBadge(t *testing.T) {
	theme := NewTheme(ModeLight)

	assert.Contains(t, theme.RenderRiskBadge(model.RiskHigh), "HIGH RISK")
	assert.Contains(t, theme.RenderRiskBadge("Strange"), "STRANGE RISK")
	assert.Contains(t, theme.RenderRiskBadge(""), "UNKNOWN RISK")
}

// =============================================================================
// THEME TESTS
// =============================================================================

func TestNewTheme_Modes(t *testing.T) {
	dark := NewTheme(ModeDark)
	assert.True(t, dark.IsDark)

	light := NewTheme(ModeLight)
	assert.False(t, light.IsDark)

	// Auto mode must not panic without a terminal
	assert.NotNil(t, NewTheme(ModeAuto))
	assert.NotNil(t, NewTheme("bogus"))
}

func TestThemeStylesRender(t *testing.T) {
	theme := NewTheme(ModeLight)

	styles := map[string]lipgloss.Style{
		"Header":      theme.Header,
		"TabActive":   theme.TabActive,
		"Button":      theme.Button,
		"ErrorBanner": theme.ErrorBanner,
		"HistoryItem": theme.HistoryItem,
		"StatusBar":   theme.StatusBar,
	}

	for name, style := range styles {
		if !strings.Contains(style.Render("test"), "test") {
			t.Errorf("%s style lost its content", name)
		}
	}
}

func TestGetLayoutMode(t *testing.T) {
	theme := NewTheme(ModeLight)

	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
	}

	for _, tt := range tests {
		theme.SetSize(tt.width, 30)
		assert.Equal(t, tt.want, theme.GetLayoutMode(), "width %d", tt.width)
	}
}

func TestContentWidth(t *testing.T) {
	theme := NewTheme(ModeLight)

	theme.SetSize(100, 40)
	assert.Equal(t, 96, theme.ContentWidth())

	theme.SetSize(10, 40)
	assert.Equal(t, 20, theme.ContentWidth())
}

func TestGlamourStyle(t *testing.T) {
	theme := NewTheme(ModeDark)
	style := theme.GlamourStyle()
	assert.Contains(t, []string{"dark", "notty"}, style)
}

// =============================================================================
// STATUS RENDERING TESTS
// =============================================================================

func TestRenderStatusHelpers(t *testing.T) {
	assert.Contains(t, RenderSuccess("saved"), "[OK] saved")
	assert.Contains(t, RenderError("failed"), "[X] failed")
	assert.Contains(t, RenderWarning("careful"), "[!] careful")
	assert.Contains(t, RenderInfo("note"), "[i] note")
}

// =============================================================================
// SPINNER TESTS
// =============================================================================

func TestSpinnerConfig_Duration(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, LineSpinner.Duration())
	assert.Equal(t, time.Second, SpinnerConfig{}.Duration())
	assert.NotEmpty(t, DotsSpinner.Frames)
}
