package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/manifoldco/promptui"
)

// ErrCancelled is returned when the user aborts a prompt
var ErrCancelled = errors.New("operation cancelled by user")

// ConfirmPrompt asks a yes/no confirmation question
func ConfirmPrompt(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	result, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, ErrCancelled
		}
		return false, err
	}

	// promptui returns "y" for yes
	return strings.EqualFold(result, "y"), nil
}

// SelectOption is one entry of a detailed selection list
type SelectOption struct {
	Label  string
	Detail string
	Value  string
}

// SelectPromptDetailed presents options with details and fuzzy search
func SelectPromptDetailed(label string, options []SelectOption) (int, SelectOption, error) {
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   "▸ {{ .Label | cyan }} ({{ .Detail | faint }})",
		Inactive: "  {{ .Label | faint }} ({{ .Detail | faint }})",
		Selected: "▸ {{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     options,
		Templates: templates,
		Size:      min(10, len(options)),
		Searcher: func(input string, index int) bool {
			if index < 0 || index >= len(options) {
				return false
			}
			return FuzzyMatch(input, options[index].Label+" "+options[index].Detail)
		},
	}

	index, _, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return -1, SelectOption{}, ErrCancelled
		}
		return -1, SelectOption{}, err
	}

	return index, options[index], nil
}

// FuzzyMatch reports whether query fuzzily matches target, case-insensitively.
// An empty query matches everything.
func FuzzyMatch(query, target string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return fuzzy.MatchNormalizedFold(query, target)
}

// ConfirmInstall asks before handing an archive to dpkg
func ConfirmInstall(name, version string) (bool, error) {
	return ConfirmPrompt(fmt.Sprintf("Install %s %s", name, version))
}
