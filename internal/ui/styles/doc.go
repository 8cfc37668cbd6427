// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the AuditLogic TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. The theme can also be forced with the ui.theme config value.

# Color System (colors.go)

  - Blue - Primary accent, submit button, detected biases
  - Indigo - Counter-hypotheses
  - Rose - Errors, reasoning flaws and kill criteria
  - Amber - Missing credential warnings
  - Emerald - Credential present

Risk badges use a fixed mapping:

	Extreme  - red
	High     - orange
	Moderate - yellow
	other    - neutral gray (Low and unrecognised levels)

# Theme System (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme)
	badge := theme.RenderRiskBadge(result.RiskAssessment.Level)

GlamourStyle picks the glamour standard style matching the detected
background so rendered reports agree with the surrounding chrome.

# Accessibility

Status helpers (RenderSuccess, RenderError, RenderWarning, RenderInfo) pair
every colour with an ASCII indicator such as [OK] or [X].
*/
package styles
