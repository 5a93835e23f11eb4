package main

import (
	"fmt"
	"sort"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fabledbg-dev/fabledbg/story"
)

var scanCmd = &cobra.Command{
	Use:   "scan STORYFILE",
	Short: "Print the passage location index for a story file",
	Args:  cobra.MinimumNArgs(1),
	Run:   scanCommand,
}

func init() {
	scanCmd.Flags().StringVar(&dialectFlag, "dialect", "", "Force the story dialect (twee, ink) instead of detecting by extension")
}

func scanCommand(cmd *cobra.Command, args []string) {
	path := args[0]
	dialect := story.Dialect(dialectFlag)
	if dialect == "" {
		dialect = story.DetectDialect(path)
	}
	index := story.NewIndex(dialect)
	if err := index.ScanFile(path); err != nil {
		log.Fatal().Err(err).Msg("Couldn't scan story file")
	}

	locs := index.Locations()
	names := make([]string, 0, len(locs))
	for name := range locs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return locs[names[i]].Line < locs[names[j]].Line })

	fmt.Println(color.Cyan.Sprintf("%d passages (%s dialect)", len(names), dialect))
	for _, name := range names {
		loc := locs[name]
		fmt.Printf("  %s  %s:%d\n", color.Green.Sprint(name), loc.File, loc.Line)
	}
}
