package matchcmd

import (
	"bufio"
	"fmt"
	"io"

	"github.com/lehigh-university-libraries/fuzzymatch/internal/normalize"
)

func executeNormalize(in io.Reader, out io.Writer, mode normalize.Mode, args []string, trace bool) error {
	w := bufio.NewWriter(out)
	defer w.Flush()

	emit := func(name string) {
		fmt.Fprintf(w, "%s\t%s\n", name, normalize.Normalize(name, mode))
		if !trace {
			return
		}
		for _, step := range normalize.Trace(name, mode) {
			fmt.Fprintf(w, "  %-16s %q\n", step.Rule, step.Value)
		}
	}

	if len(args) > 0 {
		for _, name := range args {
			emit(name)
		}
		return w.Flush()
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		emit(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read names: %w", err)
	}

	return w.Flush()
}
