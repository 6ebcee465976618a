package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var searchCursor string

var searchCmd = &cobra.Command{
	Use:   "search <provider> <query...>",
	Short: "在音乐来源中搜索",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := openSources(cmd.Context(), cfg)
		defer s.close()

		providerID, query := args[0], strings.Join(args[1:], " ")
		res, err := s.registry.Search(cmd.Context(), providerID, query, searchCursor)
		if err != nil {
			return err
		}
		if len(res.Tracks) == 0 {
			fmt.Println("未找到相关歌曲")
			return nil
		}

		for i, t := range res.Tracks {
			line := fmt.Sprintf("%d. %s - %s", i+1, t.Title, t.ArtistName)
			if t.AlbumName != "" {
				line += " [" + t.AlbumName + "]"
			}
			if t.DurationMs > 0 {
				line += " " + (time.Duration(t.DurationMs) * time.Millisecond).Round(time.Second).String()
			}
			fmt.Printf("%s\n   %s\n", line, t.ID)
		}
		if res.NextCursor != "" {
			fmt.Printf("\nnext page: --cursor %s\n", res.NextCursor)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchCursor, "cursor", "", "cursor of the page to fetch")
}
