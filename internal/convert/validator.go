// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务

package convert

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator decides whether a file name is acceptable as conversion input.
type Validator interface {
	IsValid(name string) bool
}

type validator struct {
	allow []*regexp.Regexp
	block []*regexp.Regexp
}

// NewValidator creates a Validator from allow/block expressions. Blocked names
// lose; with no allow expressions everything not blocked passes. Empty
// expressions are ignored.
func NewValidator(allow, block []string) (Validator, error) {
	v := &validator{}

	for _, exp := range allow {
		exp = strings.TrimSpace(exp)
		if exp == "" {
			continue
		}
		re, err := regexp.Compile(exp)
		if err != nil {
			return nil, fmt.Errorf("invalid allow expression '%s': %w", exp, err)
		}
		v.allow = append(v.allow, re)
	}

	for _, exp := range block {
		exp = strings.TrimSpace(exp)
		if exp == "" {
			continue
		}
		re, err := regexp.Compile(exp)
		if err != nil {
			return nil, fmt.Errorf("invalid block expression '%s': %w", exp, err)
		}
		v.block = append(v.block, re)
	}

	return v, nil
}

// NewExtensionValidator builds a Validator accepting only the given media file
// extensions (case-insensitive, leading dot included, e.g. ".mp4").
func NewExtensionValidator(extensions []string) (Validator, error) {
	if len(extensions) == 0 {
		return NewValidator(nil, nil)
	}

	trimmed := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		trimmed = append(trimmed, regexp.QuoteMeta(strings.TrimPrefix(ext, ".")))
	}
	exp := fmt.Sprintf(`(?i)\.(%s)$`, strings.Join(trimmed, "|"))

	return NewValidator([]string{exp}, nil)
}

func (v *validator) IsValid(name string) bool {
	for _, e := range v.block {
		if e.MatchString(name) {
			return false
		}
	}
	if len(v.allow) == 0 {
		return true
	}
	for _, e := range v.allow {
		if e.MatchString(name) {
			return true
		}
	}
	return false
}
