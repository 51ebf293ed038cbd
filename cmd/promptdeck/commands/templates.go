package commands

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/gnemet/PromptDeck/internal/gdocs"
	"github.com/spf13/cobra"
	"google.golang.org/api/drive/v3"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Lists the presentations in the templates folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		if cfg.Google.TemplatesFolder == "" {
			return errors.New("GOOGLE_DRIVE_FOLDER_ID is not set")
		}
		client, err := gdocs.NewClient(ctx, cfg.Google, log)
		if err != nil {
			return err
		}

		files, err := client.ListFiles(ctx, cfg.Google.TemplatesFolder, []string{gdocs.MimePresentation})
		if err != nil {
			return err
		}
		if len(files) == 0 {
			dimColor.Println("No presentations found.")
			return nil
		}

		fmt.Print(fileTable(files))
		return nil
	},
}

// fileTable aligns files into columns. The header is colored after
// alignment so escape codes do not count towards the column width.
func fileTable(files []*drive.File) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, f := range files {
		fmt.Fprintf(w, "%s\t%s\n", f.Id, f.Name)
	}
	w.Flush()

	header, rest, _ := strings.Cut(buf.String(), "\n")
	return headColor.Sprint(header) + "\n" + rest
}

func init() {
	AddCommand(templatesCmd)
}
