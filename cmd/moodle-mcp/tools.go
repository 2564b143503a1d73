package main

import (
	"fmt"
	"reflect"

	"github.com/effective-security/moodlemcp/encoding/yaml"
	"github.com/effective-security/moodlemcp/tools"
	"github.com/effective-security/moodlemcp/utils"
	"github.com/spf13/cobra"
)

func newToolsCommand(_ *cli) *cobra.Command {
	var asJSON, examples bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools with their descriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := tools.Default().ListTools()
			out := cmd.OutOrStdout()

			switch {
			case examples:
				for _, def := range list {
					enc := yaml.NewEncoder(reflect.New(def.InputType).Interface()).
						WithCommentStyle(yaml.LineComment)
					bs, err := enc.Example()
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "# %s\n# %s\n%s\n", def.Name, def.Description, bs)
				}
			case asJSON:
				fmt.Fprintln(out, utils.ToJSONIndent(list))
			default:
				fmt.Fprint(out, utils.ToYAML(list))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print definitions with schemas as JSON")
	cmd.Flags().BoolVar(&examples, "examples", false, "Print generated example arguments for each tool")
	return cmd
}
