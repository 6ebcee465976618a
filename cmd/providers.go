package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"TemplePlayer/model"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "列出音乐来源",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := openSources(cmd.Context(), cfg)
		defer s.close()

		activeID := ""
		if active, err := s.registry.ActiveProvider(); err == nil {
			activeID = active.ID()
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tAUTH\tCAPABILITIES")
		for _, p := range s.registry.Providers() {
			id := p.ID()
			if id == activeID {
				id += "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, p.Name(), p.AuthState().Status, capabilityList(p.Capabilities()))
		}
		return w.Flush()
	},
}

func capabilityList(c model.Capabilities) string {
	var out []string
	for _, f := range []struct {
		on   bool
		name string
	}{
		{c.CanLocalFiles, "local"},
		{c.CanSearch, "search"},
		{c.CanGetArtwork, "artwork"},
		{c.CanAuth, "auth"},
		{c.CanStreamHTTP, "http"},
		{c.SupportsHLS, "hls"},
		{c.SupportsHeaders, "headers"},
		{c.SupportsDRM, "drm"},
	} {
		if f.on {
			out = append(out, f.name)
		}
	}
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, ",")
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
