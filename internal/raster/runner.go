package raster

import (
	"bytes"
	"context"
	"log"
	"os/exec"
	"strings"
	"time"

	"docquery/internal/logutil"
)

// Runner executes an external command. Tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	if err != nil {
		log.Printf("raster.ExecRunner.Run: %s %s failed after %s: %v (stderr=%q)",
			name, strings.Join(args, " "), time.Since(start), err, logutil.Truncate(errb.String(), 8<<10))
	}
	return out.Bytes(), errb.Bytes(), err
}
