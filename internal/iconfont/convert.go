package iconfont

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/spritegen/internal/logfields"
	"git.home.luguber.info/inful/spritegen/internal/workspace"
)

// Converter turns an SVG font document into TrueType data.
type Converter interface {
	Convert(ctx context.Context, fontName string, svgFont []byte) ([]byte, error)
}

// ExecConverter runs an external svg2ttf-compatible command as
// `<command> <input.svg> <output.ttf>` inside a scratch workspace.
type ExecConverter struct {
	// Command may carry leading arguments, e.g. "npx svg2ttf".
	Command    string
	Workspaces *workspace.Manager
}

// NewExecConverter returns a converter invoking command.
func NewExecConverter(command string, ws *workspace.Manager) *ExecConverter {
	if ws == nil {
		ws = workspace.NewManager("", workspace.KeepNever)
	}
	return &ExecConverter{Command: command, Workspaces: ws}
}

func (c *ExecConverter) Convert(ctx context.Context, fontName string, svgFont []byte) (ttf []byte, err error) {
	argv := strings.Fields(c.Command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("no svg2ttf command configured")
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("svg2ttf command %q not found: %w", argv[0], err)
	}

	ws, err := c.Workspaces.Create(fontName)
	if err != nil {
		return nil, err
	}
	dir := ws.Path()
	defer func() {
		if rerr := ws.Release(err != nil); rerr != nil {
			slog.Warn("Failed to remove converter workspace", logfields.Directory(dir), logfields.Error(rerr))
		}
	}()

	in, err := ws.WriteFile("font.svg", svgFont)
	if err != nil {
		return nil, err
	}
	out := ws.File("font.ttf")

	// #nosec G204 -- the command comes from the build configuration
	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], in, out)...)
	cmd.Dir = ws.Path()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Invoking svg2ttf", slog.String("command", c.Command), logfields.Directory(dir))

	if err := cmd.Run(); err != nil {
		output := strings.TrimSpace(stderr.String())
		if output == "" {
			output = strings.TrimSpace(stdout.String())
		}
		if output != "" {
			return nil, fmt.Errorf("svg2ttf failed: %w: %s", err, output)
		}
		return nil, fmt.Errorf("svg2ttf failed: %w", err)
	}
	if s := stderr.String(); s != "" {
		slog.Debug("svg2ttf stderr", logfields.Font(fontName), slog.String("output", s))
	}

	ttf, err = os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read svg2ttf output: %w", err)
	}
	return ttf, nil
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(ctx context.Context, fontName string, svgFont []byte) ([]byte, error)

func (f ConverterFunc) Convert(ctx context.Context, fontName string, svgFont []byte) ([]byte, error) {
	return f(ctx, fontName, svgFont)
}
