package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/idelchi/dirsize/internal/diskusage"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
	// MaxListedErrors is the number of errors listed in table output without --debug.
	MaxListedErrors = 5
)

// PrintJSON outputs the result in JSON format.
func PrintJSON(result *diskusage.Result, writer io.Writer) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// PrintPlain outputs one "size<TAB>path" line per entry, largest first, for
// consumption by other tools.
func PrintPlain(result *diskusage.Result, writer io.Writer) error {
	for _, entry := range result.Entries {
		if _, err := fmt.Fprintf(writer, "%d\t%s\n", entry.Size, entry.Path); err != nil {
			return err
		}
	}

	return nil
}

// percent returns part as a percentage of total.
func percent(part, total uint64) float64 {
	if total == 0 {
		return 0
	}

	return 100.0 * float64(part) / float64(total)
}

// PrintTable outputs the result in human-readable table format. The largest
// entry is printed last so it stays next to the prompt.
//
//nolint:forbidigo // This function prints output to the console.
func PrintTable(result *diskusage.Result, writer io.Writer, allErrors bool) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(w, "\n%s\t\t\n", bold("Disk usage report: "+result.Root.Path))

	switch result.Rank {
	case diskusage.RankDirs:
		fmt.Fprintln(w, "\nTop directories:\t\t")
	case diskusage.RankFiles:
		fmt.Fprintln(w, "\nTop files:\t\t")
	default:
		fmt.Fprintln(w, "\nTop entries:\t\t")
	}

	for i := len(result.Entries) - 1; i >= 0; i-- {
		entry := result.Entries[i]

		suffix := ""
		if entry.Kind == diskusage.KindDir {
			suffix = "/"
		}

		fmt.Fprintf(w, "  %d) '%s%s'\t%s (%.1f%%)\n",
			i+1, entry.Path, suffix, humanize.IBytes(entry.Size), percent(entry.Size, result.TotalSize))
	}

	// Stats summary
	fmt.Fprintln(w, "\nStats:\t\t")
	fmt.Fprintf(w, "Total files:\t%s\n", humanize.Comma(result.TotalFiles))
	fmt.Fprintf(w, "Total directories:\t%s\n", humanize.Comma(result.TotalDirs))

	if result.TotalSymlinks > 0 {
		fmt.Fprintf(w, "Total symlinks:\t%s\n", humanize.Comma(result.TotalSymlinks))
	}

	total := humanize.IBytes(result.TotalSize)
	if result.Saturated {
		total = ">= " + total
	}

	fmt.Fprintf(w, "Total size:\t%s (%d bytes)\n", green(total), result.TotalSize)

	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "Errors:\t%s (permission denied or inaccessible)\n", red(len(result.Errors)))

		listed := result.Errors
		if !allErrors && len(listed) > MaxListedErrors {
			listed = listed[:MaxListedErrors]
		}

		for _, scanErr := range listed {
			fmt.Fprintf(w, "  [%s]\t%s\n", scanErr.Kind, scanErr.Path)
		}

		if hidden := len(result.Errors) - len(listed); hidden > 0 {
			fmt.Fprintf(w, "  ... and %d more (use --debug to list all)\n", hidden)
		}
	}

	fmt.Fprintf(w, "\nElapsed:\t%v\n", result.Elapsed)

	return w.Flush()
}
