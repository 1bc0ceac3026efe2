package rust

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/tliron/commonlog"

	"sol2rs/internal/errors"
)

var log = commonlog.GetLogger("sol2rs.rust")

// DefaultRustfmt is the formatter binary looked up on PATH.
const DefaultRustfmt = "rustfmt"

// Formatter pipes generated source through rustfmt.
type Formatter struct {
	Binary  string
	Edition string
}

func NewFormatter(binary string) *Formatter {
	if binary == "" {
		binary = DefaultRustfmt
	}
	return &Formatter{Binary: binary, Edition: "2021"}
}

// Format runs the formatter over src. Any failure, including a missing
// binary, is a FormatError; unformatted output is never returned.
func (f *Formatter) Format(ctx context.Context, src string) (string, error) {
	path, err := exec.LookPath(f.Binary)
	if err != nil {
		return "", errors.Format(err, "")
	}

	cmd := exec.CommandContext(ctx, path, "--edition", f.Edition, "--emit", "stdout")
	cmd.Stdin = strings.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debugf("running %s", path)
	if err := cmd.Run(); err != nil {
		return "", errors.Format(err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Format formats src with the rustfmt found on PATH.
func Format(ctx context.Context, src string) (string, error) {
	return NewFormatter("").Format(ctx, src)
}
