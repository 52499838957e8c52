// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package pipeline

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar"
	"gopkg.in/yaml.v3"
)

// Triggers holds the events a pipeline reacts to. Only push events are
// supported.
type Triggers struct {
	Push *PushTrigger
}

// PushTrigger filters push events by branch. Branches and
// BranchesIgnore are mutually exclusive; with neither set every branch
// matches.
type PushTrigger struct {
	Branches       StringList
	BranchesIgnore StringList
}

// PushEvent is a normalized push notification.
type PushEvent struct {
	// Ref is the full git ref when known, e.g. "refs/heads/feature-auth".
	Ref string
	// Branch is the short branch name, e.g. "feature-auth".
	Branch string
	// Commit is the SHA pushed to the branch head.
	Commit string
	// Deleted marks a branch deletion push.
	Deleted bool
}

// UnmarshalYAML accepts the three trigger forms:
//
//	on: push
//	on: [push]
//	on:
//	  push:
//	    branches: [main, dev, feature-**]
func (t *Triggers) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var event string
		if err := value.Decode(&event); err != nil {
			return err
		}
		return t.enable(event, value.Line)

	case yaml.SequenceNode:
		var events []string
		if err := value.Decode(&events); err != nil {
			return err
		}
		for _, event := range events {
			if err := t.enable(event, value.Line); err != nil {
				return err
			}
		}
		return nil

	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			keyNode, valNode := value.Content[i], value.Content[i+1]
			var key string
			if err := keyNode.Decode(&key); err != nil {
				return err
			}
			if key != "push" {
				return fmt.Errorf("line %d: unsupported event %q (only push is supported)", keyNode.Line, key)
			}
			push := &PushTrigger{}
			if valNode.Tag != "!!null" {
				if err := decodePushFilters(valNode, push); err != nil {
					return err
				}
			}
			t.Push = push
		}
		return nil

	default:
		return fmt.Errorf("line %d: invalid trigger definition", value.Line)
	}
}

func (t *Triggers) enable(event string, line int) error {
	if event != "push" {
		return fmt.Errorf("line %d: unsupported event %q (only push is supported)", line, event)
	}
	t.Push = &PushTrigger{}
	return nil
}

func decodePushFilters(node *yaml.Node, push *PushTrigger) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: push trigger must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		var key string
		if err := keyNode.Decode(&key); err != nil {
			return err
		}
		switch key {
		case "branches":
			if err := valNode.Decode(&push.Branches); err != nil {
				return err
			}
		case "branches-ignore":
			if err := valNode.Decode(&push.BranchesIgnore); err != nil {
				return err
			}
		default:
			return fmt.Errorf("line %d: unknown push filter %q", keyNode.Line, key)
		}
	}
	return nil
}

// Validate checks the trigger filters.
func (p *PushTrigger) Validate() error {
	if len(p.Branches) > 0 && len(p.BranchesIgnore) > 0 {
		return fmt.Errorf("branches and branches-ignore cannot both be set")
	}
	if err := validatePatterns(p.Branches); err != nil {
		return fmt.Errorf("branches: %w", err)
	}
	if err := validatePatterns(p.BranchesIgnore); err != nil {
		return fmt.Errorf("branches-ignore: %w", err)
	}
	return nil
}

func validatePatterns(patterns []string) error {
	for i, pattern := range patterns {
		raw := strings.TrimPrefix(pattern, "!")
		if raw == "" {
			return fmt.Errorf("pattern[%d] is empty", i)
		}
		if _, err := doublestar.Match(raw, "probe"); err != nil {
			return fmt.Errorf("pattern[%d] %q: %w", i, pattern, err)
		}
	}
	return nil
}

// Matches reports whether the event should start a run. Deletion
// pushes never match.
func (t Triggers) Matches(ev PushEvent) bool {
	if t.Push == nil || ev.Deleted {
		return false
	}
	return t.Push.MatchBranch(ev.Branch)
}

// MatchBranch applies the branch filters to a branch name.
func (p *PushTrigger) MatchBranch(branch string) bool {
	if len(p.Branches) > 0 {
		return matchPatterns(p.Branches, branch)
	}
	if len(p.BranchesIgnore) > 0 {
		return !matchPatterns(p.BranchesIgnore, branch)
	}
	return true
}

// matchPatterns evaluates glob patterns in order. A leading "!"
// negates a pattern; the last matching pattern decides the outcome.
func matchPatterns(patterns []string, branch string) bool {
	matched := false
	for _, pattern := range patterns {
		negate := strings.HasPrefix(pattern, "!")
		raw := strings.TrimPrefix(pattern, "!")

		ok, err := doublestar.Match(raw, branch)
		if err != nil || !ok {
			continue
		}
		matched = !negate
	}
	return matched
}
