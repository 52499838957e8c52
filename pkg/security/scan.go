// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package security

import (
	"regexp"
)

// tokenPattern is a well-known credential shape.
type tokenPattern struct {
	re       *regexp.Regexp
	category string
}

// tokenPatterns covers the credential formats most likely to leak from
// CI step output. The shapes are matched structurally, never by value.
var tokenPatterns = []*tokenPattern{
	{regexp.MustCompile(`ghp_[A-Za-z0-9]{36}`), "github_pat"},
	{regexp.MustCompile(`gh[osur]_[A-Za-z0-9]{36}`), "github_token"},
	{regexp.MustCompile(`github_pat_[A-Za-z0-9_]{22,}`), "github_fine_grained_pat"},
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "aws_access_key_id"},
	{regexp.MustCompile(`xox[baprs]-[A-Za-z0-9-]{10,}`), "slack_token"},
	{regexp.MustCompile(`glpat-[A-Za-z0-9_-]{20,}`), "gitlab_pat"},
	{regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`), "private_key"},
	{regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`), "jwt"},
}

// Finding reports credential-shaped matches of one category.
type Finding struct {
	Category string
	Count    int
}

// ScanTokens reports well-known credential shapes found in text.
// Categories appear in pattern order, each with its match count.
func ScanTokens(text string) []Finding {
	var findings []Finding
	for _, pat := range tokenPatterns {
		if n := len(pat.re.FindAllStringIndex(text, -1)); n > 0 {
			findings = append(findings, Finding{Category: pat.category, Count: n})
		}
	}
	return findings
}

// MaskTokens returns text with every well-known credential shape
// replaced by the mask.
func MaskTokens(text string) string {
	for _, pat := range tokenPatterns {
		text = pat.re.ReplaceAllString(text, Mask)
	}
	return text
}
