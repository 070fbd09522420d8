// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/ava-labs/hyperload/crypto/ed25519"
)

func PromptString(label string, def string, min int, max int) (string, error) {
	promptText := promptui.Prompt{
		Label:   label,
		Default: def,
		Validate: func(input string) error {
			return validateLength(input, min, max)
		},
	}
	text, err := promptText.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), err
}

func PromptURI(label string, def string) (string, error) {
	promptText := promptui.Prompt{
		Label:    label,
		Default:  def,
		Validate: validateURI,
	}
	uri, err := promptText.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(uri), nil
}

func PromptAccount(label string, def string) (string, error) {
	promptText := promptui.Prompt{
		Label:    label,
		Default:  def,
		Validate: validateAccount,
	}
	account, err := promptText.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(account), nil
}

// PromptKey returns the hex key entered by the user or, if left empty, a
// newly generated one.
func PromptKey(label string) (ed25519.PrivateKey, error) {
	promptText := promptui.Prompt{
		Label: label + " (leave empty to generate)",
		Mask:  '*',
		Validate: func(input string) error {
			if len(strings.TrimSpace(input)) == 0 {
				return nil
			}
			_, err := ed25519.LoadHexKey(strings.TrimSpace(input))
			return err
		},
	}
	raw, err := promptText.Run()
	if err != nil {
		return ed25519.EmptyPrivateKey, err
	}
	raw = strings.TrimSpace(raw)
	if len(raw) == 0 {
		return ed25519.GeneratePrivateKey()
	}
	return ed25519.LoadHexKey(raw)
}

func PromptBool(label string) (bool, error) {
	promptText := promptui.Prompt{
		Label:    fmt.Sprintf("%s (y/n)", label),
		Validate: validateBool,
	}
	rawContinue, err := promptText.Run()
	if err != nil {
		return false, err
	}
	return strings.ToLower(strings.TrimSpace(rawContinue)) == "y", nil
}

func validateLength(input string, min int, max int) error {
	input = strings.TrimSpace(input)
	if len(input) < min {
		return ErrInputEmpty
	}
	if len(input) > max {
		return ErrInputTooLarge
	}
	return nil
}

func validateURI(input string) error {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return ErrInputEmpty
	}
	u, err := url.Parse(input)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidChoice)
	}
	return nil
}

func validateAccount(input string) error {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return ErrInputEmpty
	}
	name, domain, ok := strings.Cut(input, "@")
	if !ok || len(name) == 0 || len(domain) == 0 {
		return fmt.Errorf("%w: expected name@domain", ErrInvalidChoice)
	}
	return nil
}

func validateBool(input string) error {
	if len(input) == 0 {
		return ErrInputEmpty
	}
	lower := strings.ToLower(strings.TrimSpace(input))
	if lower == "y" || lower == "n" {
		return nil
	}
	return ErrInvalidChoice
}
