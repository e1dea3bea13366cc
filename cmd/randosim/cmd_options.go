package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/randosim/internal/game"
	"github.com/nvandessel/randosim/internal/loader"
	"github.com/nvandessel/randosim/internal/models"
)

func newOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options <game> [choices]",
		Short: "List what a game offers, or how a choice file fills it",
		Long: `Without a choice file, list every unlockable, findable and initial slot
of the game. With one, list the initial slots and unlockables that received
an item, and the unlockables that did not.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			desc, err := loader.LoadGame(args[0])
			if err != nil {
				return err
			}
			g, err := game.Compile(desc)
			if err != nil {
				return fmt.Errorf("invalid game %s: %w", args[0], err)
			}

			var choices *models.Choices
			if len(args) == 2 {
				c, err := loader.LoadChoices(args[1])
				if err != nil {
					return err
				}
				choices = &c
			}

			opts := game.DescribeOptions(g, choices)
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(opts)
			}
			fmt.Fprint(cmd.OutOrStdout(), opts.String())
			return nil
		},
	}
}
