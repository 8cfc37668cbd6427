// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for audits and audit sessions.
package model

import (
	"fmt"
	"strings"
)

// =============================================================================
// RISK LEVEL
// =============================================================================

// RiskLevel is the ordinal severity the auditor assigns to a statement.
// The auditor is asked for one of the four known levels, but any other
// string is carried through as data rather than rejected.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskExtreme  RiskLevel = "Extreme"
)

// KnownRiskLevels lists the levels in ascending severity.
var KnownRiskLevels = []RiskLevel{RiskLow, RiskModerate, RiskHigh, RiskExtreme}

// IsKnown reports whether the level is one of the four expected values.
func (l RiskLevel) IsKnown() bool {
	return l.Severity() > 0
}

// Severity returns 1-4 for the known levels and 0 for anything else.
func (l RiskLevel) Severity() int {
	switch l {
	case RiskLow:
		return 1
	case RiskModerate:
		return 2
	case RiskHigh:
		return 3
	case RiskExtreme:
		return 4
	default:
		return 0
	}
}

// String returns the level as stored.
func (l RiskLevel) String() string {
	return string(l)
}

// Badge returns the display label used in history rows and report headers.
func (l RiskLevel) Badge() string {
	if l == "" {
		return "Unknown Risk"
	}
	return string(l) + " Risk"
}

// =============================================================================
// AUDIT RESULT
// =============================================================================

// RiskAssessment is the overall verdict attached to an audit.
type RiskAssessment struct {
	Level   RiskLevel `json:"level" yaml:"level"`
	Summary string    `json:"summary" yaml:"summary"`
}

// AuditResult is the structured critique of a single statement.
// A result is all-or-nothing: every field is populated by the auditor or the
// result is rejected before it reaches this type.
type AuditResult struct {
	DetectedBiases    []string       `json:"detectedBiases" yaml:"detectedBiases"`
	Evidence          string         `json:"evidence" yaml:"evidence"`
	ReasoningFlaws    []string       `json:"reasoningFlaws" yaml:"reasoningFlaws"`
	WeakAssumptions   []string       `json:"weakAssumptions" yaml:"weakAssumptions"`
	CounterHypotheses []string       `json:"counterHypotheses" yaml:"counterHypotheses"`
	KillCriteria      []string       `json:"killCriteria" yaml:"killCriteria"`
	RiskAssessment    RiskAssessment `json:"riskAssessment" yaml:"riskAssessment"`
}

// Validate checks the invariants a parsed result must satisfy.
// Slices may be empty but not nil; the risk level must be non-empty.
func (r *AuditResult) Validate() error {
	if r == nil {
		return fmt.Errorf("audit result is nil")
	}

	var missing []string
	if r.DetectedBiases == nil {
		missing = append(missing, "detectedBiases")
	}
	if r.ReasoningFlaws == nil {
		missing = append(missing, "reasoningFlaws")
	}
	if r.WeakAssumptions == nil {
		missing = append(missing, "weakAssumptions")
	}
	if r.CounterHypotheses == nil {
		missing = append(missing, "counterHypotheses")
	}
	if r.KillCriteria == nil {
		missing = append(missing, "killCriteria")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}

	if strings.TrimSpace(string(r.RiskAssessment.Level)) == "" {
		return fmt.Errorf("riskAssessment.level is empty")
	}

	return nil
}

// Clone returns a deep copy so callers can hand results around without
// sharing backing arrays.
func (r AuditResult) Clone() AuditResult {
	return AuditResult{
		DetectedBiases:    cloneStrings(r.DetectedBiases),
		Evidence:          r.Evidence,
		ReasoningFlaws:    cloneStrings(r.ReasoningFlaws),
		WeakAssumptions:   cloneStrings(r.WeakAssumptions),
		CounterHypotheses: cloneStrings(r.CounterHypotheses),
		KillCriteria:      cloneStrings(r.KillCriteria),
		RiskAssessment:    r.RiskAssessment,
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
