package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mitchellnkeo/CheckMyForm/internal/profile"
	"github.com/mitchellnkeo/CheckMyForm/internal/store"
)

var profilesStored bool

func newProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List built-in and custom exercise profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			var st *store.Store
			if profilesStored {
				var err error
				if st, err = openStore(); err != nil {
					return err
				}
				defer closeStore(st)
			}
			reg, err := loadRegistry(st)
			if err != nil {
				return err
			}
			return printProfiles(cmd.OutOrStdout(), reg)
		},
	}
	cmd.Flags().BoolVar(&profilesStored, "stored", false, "include profiles saved through the API")
	return cmd
}

func printProfiles(w io.Writer, reg *profile.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTITLE\tSOURCE\tPRIMARY\tMETRICS")
	for _, p := range reg.List() {
		source := "custom"
		if reg.IsBuiltin(p.Name) {
			source = "builtin"
		}
		names := make([]string, len(p.Metrics))
		for i, m := range p.Metrics {
			names[i] = m.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.Title(), source, p.Primary, strings.Join(names, ", "))
	}
	return tw.Flush()
}
