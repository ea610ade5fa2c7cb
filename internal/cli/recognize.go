package cli

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewRecognizeCommand creates the recognize command.
func NewRecognizeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recognize <image file>",
		Short: "Identify a student from a photo",
		Long: `Identify a student from a photo.

The image is sent to the face recognition service when --face-url is set;
otherwise, or when that service fails, the local matcher is used. A match
is written to the activity log.`,
		Args: cobra.ExactArgs(1),
		RunE: rootOpts.runE(func(cmd *cobra.Command, args []string, f *OutputFormatter, app *App) error {
			if _, err := requireUser(cmd, f, app); err != nil {
				return err
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeInvalid, "could not read image", err)
			}
			f.VerboseLog("read %d bytes from %s", len(raw), args[0])

			res, err := app.Recognition.Identify(cmd.Context(), dataURL(raw))
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeGeneric, "recognition failed", err)
			}
			if !res.Matched {
				if err := f.Success(res, res.Message); err != nil {
					return err
				}
				return NewExitError(ExitFailure, res.Message)
			}
			text := fmt.Sprintf("%s (%s), %s, via %s", res.Student.Name, res.Student.ID, res.Student.Status, res.Source)
			if res.Access != nil {
				if res.Access.Duplicate {
					text += "\naccess already logged as " + res.Access.Event.ID
				} else {
					text += "\naccess logged as " + res.Access.Event.ID
				}
			}
			return f.Success(res, text)
		}),
	}
}

// dataURL encodes an image the way a browser capture would arrive.
func dataURL(raw []byte) string {
	mime := http.DetectContentType(raw)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw)
}
