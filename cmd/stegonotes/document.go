package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stegonotes/stegonotes/internal/handlers"
	"github.com/stegonotes/stegonotes/internal/marker"
	"github.com/stegonotes/stegonotes/pkg/core"
)

var (
	hideArgs   handlers.PlaceArgs
	hideType   string
	outPath    string
	revealPage  int
	revealIndex int
	revealOut   string
	revealFull  bool
)

var hideCmd = &cobra.Command{
	Use:   "hide <document>",
	Short: "Hides a note, image or audio clip in a text document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := core.ParsePayloadType(hideType)
		if err != nil {
			return err
		}
		hideArgs.Type = t
		if hideArgs.Value == "" && hideArgs.File == "" {
			return fmt.Errorf("one of --value or --file is required")
		}

		return withApp(cmd.Context(), func(a *app) error {
			if _, err := a.call(cmd.Context(), ":LOAD:", handlers.LoadArgs{Path: args[0]}); err != nil {
				return err
			}
			res, err := a.call(cmd.Context(), ":PLACE:", hideArgs)
			if err != nil {
				return err
			}
			view := res.(handlers.MarkerView)

			res, err = a.call(cmd.Context(), ":SAVE:", handlers.SaveArgs{Path: outPath})
			if err != nil {
				return err
			}
			saved := res.(handlers.SaveResult)

			fmt.Println(color.GreenString("✓") + " Hid " + color.CyanString(view.Type.String()) +
				fmt.Sprintf(" on page %d at (%g, %g)", view.Page, view.X, view.Y))
			fmt.Println("  Saved:   " + color.YellowString(saved.Path))
			fmt.Printf("  Markers: %d\n", saved.Markers)
			return nil
		})
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan <document>",
	Short: "Scans a document and reports the hidden payloads it carries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			res, err := a.call(cmd.Context(), ":LOAD:", handlers.LoadArgs{Path: args[0]})
			if err != nil {
				return err
			}
			printLoadResult(res.(handlers.LoadResult))
			return nil
		})
	},
}

var revealCmd = &cobra.Command{
	Use:   "reveal <document>",
	Short: "Prints every hidden payload of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			ctx := cmd.Context()
			if _, err := a.call(ctx, ":LOAD:", handlers.LoadArgs{Path: args[0]}); err != nil {
				return err
			}

			if revealIndex >= 0 {
				if revealPage < 1 {
					return fmt.Errorf("--index needs --page")
				}
				res, err := a.call(ctx, ":REVEAL:", handlers.MarkerRef{Page: revealPage, Index: revealIndex})
				if err != nil {
					return err
				}
				return writeContent(res.(core.Content), revealOut)
			}

			pages := a.session.Store().Pages()
			if revealPage > 0 {
				pages = []int{revealPage}
			}

			for _, page := range pages {
				res, err := a.call(ctx, ":PLACEMENTS:", handlers.PageArgs{Page: page})
				if err != nil {
					return err
				}
				for _, view := range res.([]handlers.MarkerView) {
					header := color.CyanString("page %d #%d", page, view.Index) + fmt.Sprintf(" (%g, %g) %s", view.X, view.Y, view.Type)

					content, err := a.call(ctx, ":REVEAL:", handlers.MarkerRef{Page: page, Index: view.Index})
					if err != nil {
						fmt.Println(header + " " + color.RedString(err.Error()))
						continue
					}
					fmt.Println(header + " " + summarize(content.(core.Content), revealFull))
				}
			}
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <document>",
	Short: "Lists the recorded scans of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			lister, ok := a.backend.(interface {
				Scans(docKey string) ([]core.ScanSummary, error)
			})
			if !ok {
				return fmt.Errorf("storage backend keeps no scan history")
			}
			if f, ok := a.backend.(interface{ Flush() error }); ok {
				if err := f.Flush(); err != nil {
					return err
				}
			}

			scans, err := lister.Scans(args[0])
			if err != nil {
				return err
			}
			if len(scans) == 0 {
				fmt.Println(color.YellowString("No scans recorded for ") + args[0])
				return nil
			}
			for i, s := range scans {
				fmt.Printf("%3d  pages=%d candidates=%d dropped=%d text=%d image=%d audio=%d %dms\n",
					i+1, s.Pages, s.Candidates, s.Dropped,
					s.Recovered[core.Text], s.Recovered[core.Image], s.Recovered[core.Audio], s.DurationMs)
			}
			return nil
		})
	},
}

func init() {
	hideCmd.Flags().IntVar(&hideArgs.Page, "page", 1, "page to hide the payload on")
	hideCmd.Flags().Float64Var(&hideArgs.X, "x", 0, "column")
	hideCmd.Flags().Float64Var(&hideArgs.Y, "y", 0, "line")
	hideCmd.Flags().StringVar(&hideType, "type", "text", "payload type: text, image or audio")
	hideCmd.Flags().StringVar(&hideArgs.Value, "value", "", "payload value")
	hideCmd.Flags().StringVar(&hideArgs.File, "file", "", "read the payload from a file")
	hideCmd.Flags().StringVarP(&outPath, "out", "o", "", "write to this path instead of overwriting the document")

	revealCmd.Flags().IntVar(&revealPage, "page", 0, "only reveal this page")
	revealCmd.Flags().IntVar(&revealIndex, "index", -1, "reveal only the marker at this index of --page")
	revealCmd.Flags().StringVarP(&revealOut, "out", "o", "", "with --index, write the payload to this file")
	revealCmd.Flags().BoolVar(&revealFull, "full", false, "print image and audio data URLs in full")

	rootCmd.AddCommand(hideCmd, scanCmd, revealCmd, historyCmd)
}

func printLoadResult(r handlers.LoadResult) {
	fmt.Println(color.GreenString("✓") + " Scanned " + color.YellowString(r.Document) + fmt.Sprintf(" in %dms", r.DurationMs))
	fmt.Printf("  Pages:      %d\n", r.Pages)
	fmt.Printf("  Candidates: %d (%d dropped)\n", r.Candidates, r.Dropped)
	for _, t := range []core.PayloadType{core.Text, core.Image, core.Audio} {
		fmt.Printf("  %-11s %s\n", strings.ToUpper(t.String()[:1])+t.String()[1:]+":", color.CyanString("%d", r.Recovered[t.String()]))
	}
	if len(r.Unreadable) > 0 {
		fmt.Println("  " + color.RedString("Unreadable pages: %v", r.Unreadable))
	}
}

// summarize shortens data URLs unless full is set.
func summarize(c core.Content, full bool) string {
	if c.Type == core.Text || full {
		return c.Value
	}
	mediaType, _, _ := strings.Cut(strings.TrimPrefix(c.Value, "data:"), ";")
	return fmt.Sprintf("%s, %d bytes encoded", mediaType, len(c.Value))
}

// writeContent prints a revealed payload, or writes it to path. Data URLs are written
// as the bytes they carry.
func writeContent(c core.Content, path string) error {
	if path == "" {
		fmt.Println(summarize(c, true))
		return nil
	}

	data := []byte(c.Value)
	if c.Type != core.Text {
		_, decoded, err := marker.ParseDataURL(c.Value)
		if err != nil {
			return err
		}
		data = decoded
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Println(color.GreenString("✓") + fmt.Sprintf(" Wrote %d bytes of %s to ", len(data), c.Type) + color.YellowString(path))
	return nil
}
