package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/sagarc03/tobi"
)

const maxTargetWidth = 60

// formatter renders command results.
type formatter interface {
	FormatAccessList(w io.Writer, result tobi.ListResult) error
	FormatPrune(w io.Writer, removed int64, before time.Time) error
	FormatError(w io.Writer, err error) error
}

func newFormatter(jsonOutput bool) formatter {
	if jsonOutput {
		return jsonFormatter{}
	}
	return humanFormatter{}
}

type humanFormatter struct{}

func (humanFormatter) FormatAccessList(w io.Writer, result tobi.ListResult) error {
	if len(result.Items) == 0 {
		_, err := fmt.Fprintln(w, "No requests recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tREMOTE\tMETHOD\tTARGET\tSTATUS\tBYTES\tDURATION")

	for i := range result.Items {
		e := &result.Items[i]
		target := e.Target
		if len(target) > maxTargetWidth {
			target = target[:maxTargetWidth-3] + "..."
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.RemoteAddr,
			e.Method,
			target,
			e.Status,
			e.BytesSent,
			time.Duration(e.DurationMicros)*time.Microsecond,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "\n%d request(s)\n", len(result.Items))
	if result.NextCursor != "" {
		_, _ = fmt.Fprintf(w, "Next page: use --cursor %q\n", result.NextCursor)
	}
	return nil
}

func (humanFormatter) FormatPrune(w io.Writer, removed int64, before time.Time) error {
	_, err := fmt.Fprintf(w, "Removed %d entr%s recorded before %s\n",
		removed, plural(removed, "y", "ies"), before.Local().Format("2006-01-02 15:04:05"))
	return err
}

func (humanFormatter) FormatError(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "Error: %v\n", err)
	return werr
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

type jsonFormatter struct{}

func (jsonFormatter) FormatAccessList(w io.Writer, result tobi.ListResult) error {
	if result.Items == nil {
		result.Items = []tobi.AccessEntry{}
	}
	return writeJSON(w, result)
}

func (jsonFormatter) FormatPrune(w io.Writer, removed int64, before time.Time) error {
	return writeJSON(w, struct {
		Removed int64     `json:"removed"`
		Before  time.Time `json:"before"`
	}{removed, before.UTC()})
}

func (jsonFormatter) FormatError(w io.Writer, err error) error {
	return writeJSON(w, map[string]string{"error": err.Error()})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
