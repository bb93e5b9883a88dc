package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/RealZimboGuy/flowlint/internal/validation"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/models"
)

func printResult(w io.Writer, name string, res *models.ValidationResponse) {
	if res.IsValid {
		fmt.Fprintf(w, "%s: valid\n", name)
		return
	}
	fmt.Fprintf(w, "%s: invalid, %d nodes with issues\n", name, len(res.Issues))
	for _, entry := range res.Issues {
		for _, issue := range entry.Issues {
			fmt.Fprintf(w, "  - %s (%s): %s\n", entry.Label, entry.NodeID, issue)
		}
	}
}

func printCanvasReport(w io.Writer, rep validation.CanvasReport) {
	if rep.Err != nil {
		fmt.Fprintf(w, "%s: error: %s\n", rep.CanvasID, errorMessage(rep.Err))
		return
	}
	printResult(w, rep.CanvasID, rep.Result)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func errorMessage(err error) string {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}
