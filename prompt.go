package personalcapital

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/openfintools/personalcapital/internal/ports"
)

// stdinCodeProvider reads the one-time challenge code interactively. The
// read runs in its own goroutine so a canceled context unblocks the login
// even though stdin itself cannot be interrupted.
func stdinCodeProvider() ports.CodeProvider {
	return promptCodeProvider(os.Stdin, os.Stderr)
}

func promptCodeProvider(in io.Reader, out io.Writer) ports.CodeProvider {
	reader := bufio.NewReader(in)
	return ports.CodeFunc(func(ctx context.Context) (string, error) {
		fmt.Fprint(out, "Enter the one-time challenge code: ")

		type result struct {
			line string
			err  error
		}
		ch := make(chan result, 1)
		go func() {
			line, err := reader.ReadString('\n')
			ch <- result{line: line, err: err}
		}()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res := <-ch:
			code := strings.TrimSpace(res.line)
			if code == "" && res.err != nil {
				return "", fmt.Errorf("read challenge code: %w", res.err)
			}
			return code, nil
		}
	})
}
