package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/moodlemcp/callbacks"
	"github.com/effective-security/moodlemcp/dispatch"
	"github.com/effective-security/moodlemcp/tools"
	"github.com/spf13/cobra"
)

// EnvMoodleToken is used when --token is not provided
const EnvMoodleToken = "MOODLE_TOKEN"

func newCallCommand(c *cli) *cobra.Command {
	var args, token string

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Call a tool once and print its result",
		Example: `  moodle-mcp call get_courses --args '{"course_name_filter":"chem"}'
  moodle-mcp call fetch_activity_content --args '{"course_id":6,"activity_name":"essay"}' -v`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, posArgs []string) error {
			if err := c.initialize(cmd.ErrOrStderr()); err != nil {
				return err
			}

			arguments := map[string]any{}
			if strings.TrimSpace(args) != "" {
				if err := json.Unmarshal([]byte(args), &arguments); err != nil {
					return errors.Wrap(err, "invalid --args, expected JSON object")
				}
			}
			if _, ok := arguments[tools.TokenField]; !ok {
				if token == "" {
					token = os.Getenv(EnvMoodleToken)
				}
				if token != "" {
					arguments[tools.TokenField] = token
				}
			}

			var cb dispatch.Callback = callbacks.NewNoop()
			if c.verbose {
				cb = callbacks.NewPrinter(cmd.ErrOrStderr(), callbacks.ModeVerbose)
			}
			d, err := c.dispatcher(cb)
			if err != nil {
				return err
			}

			res, err := d.Dispatch(cmd.Context(), posArgs[0], arguments)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return nil
		},
	}
	cmd.Flags().StringVar(&args, "args", "", "Tool arguments as JSON object")
	cmd.Flags().StringVar(&token, "token", "", "Moodle token, or set "+EnvMoodleToken)
	return cmd
}
