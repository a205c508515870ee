package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/fnhub/ingest/cmd/ingest/models"
)

// Compiler turns function source into executable JavaScript
type Compiler interface {
	Compile(name, source string) (string, error)
}

// Digester fingerprints function source
type Digester interface {
	Digest(code []byte) string
}

var esbuildTargets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// EsbuildCompiler compiles TypeScript to CommonJS with esbuild's transform API
type EsbuildCompiler struct {
	target api.Target
}

// NewEsbuildCompiler creates a compiler for target, e.g. "es2017"
func NewEsbuildCompiler(target string) (*EsbuildCompiler, error) {
	t, ok := esbuildTargets[strings.ToLower(target)]
	if !ok {
		return nil, fmt.Errorf("unsupported build target: %s", target)
	}
	return &EsbuildCompiler{target: t}, nil
}

// Compile transforms source. Syntax and type-strip errors come back as
// *models.BuildError with one diagnostic per esbuild message.
func (c *EsbuildCompiler) Compile(name, source string) (string, error) {
	result := api.Transform(source, api.TransformOptions{
		Loader:     api.LoaderTS,
		Format:     api.FormatCommonJS,
		Target:     c.target,
		Sourcefile: name + ".ts",
		Charset:    api.CharsetUTF8,
		LogLevel:   api.LogLevelSilent,
	})

	if len(result.Errors) > 0 {
		return "", &models.BuildError{Diagnostics: diagnostics(result.Errors)}
	}

	return string(result.Code), nil
}

func diagnostics(msgs []api.Message) []models.Diagnostic {
	out := make([]models.Diagnostic, 0, len(msgs))
	for _, m := range msgs {
		d := models.Diagnostic{Text: m.Text}
		if m.Location != nil {
			d.File = m.Location.File
			d.Line = m.Location.Line
			d.Column = m.Location.Column
			d.LineText = m.Location.LineText
		}
		out = append(out, d)
	}
	return out
}

// SHA256Digester is the hex SHA-256 of the source bytes
type SHA256Digester struct{}

func (SHA256Digester) Digest(code []byte) string {
	sum := sha256.Sum256(code)
	return hex.EncodeToString(sum[:])
}
