// Package integration provides embedded shell integration snippets.
package integration

import (
	"bytes"
	_ "embed"
	"fmt"
	"os/exec"
	"path/filepath"
	"text/template"
)

// ZshFzf contains the zsh shell integration script with fzf support.
//
//go:embed zsh-fzf.sh
var ZshFzf string

// Render renders the integration script with the local zsh path.
func Render() (string, error) {
	zsh, err := exec.LookPath("zsh")
	if err != nil {
		return "", fmt.Errorf("locating zsh: %w", err)
	}

	return render(filepath.ToSlash(zsh))
}

// render substitutes the zsh path into the script template.
func render(zsh string) (string, error) {
	tmpl, err := template.New("zsh-fzf").Parse(ZshFzf)
	if err != nil {
		return "", fmt.Errorf("parsing integration template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any{
		"ZSH": zsh,
	}); err != nil {
		return "", fmt.Errorf("executing integration template: %w", err)
	}

	return buf.String(), nil
}
