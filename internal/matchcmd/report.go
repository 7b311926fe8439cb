package matchcmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/lehigh-university-libraries/fuzzymatch/internal/results"
	"gopkg.in/yaml.v3"
)

func executeReport(w io.Writer, path, format string) error {
	summary, err := results.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load summary: %w", err)
	}

	switch format {
	case "text":
		results.Print(w, summary)
		return nil
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(summary)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
