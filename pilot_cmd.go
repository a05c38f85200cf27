package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"starmap/internal/db"
	"starmap/internal/logger"
	"starmap/internal/pilot"
)

var (
	shipName    string
	shipSystem  string
	shipAttrs   []string
	jumpDrive   bool
	hyperdrive  bool
	revealLinks bool
)

var pilotCmd = &cobra.Command{
	Use:   "pilot",
	Short: "Manage pilots, their ships and what they have explored",
}

var pilotBoardCmd = &cobra.Command{
	Use:   "board NAME",
	Short: "Put a pilot aboard a ship, creating the pilot if needed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, g, err := openGalaxy()
		if err != nil {
			return err
		}
		defer database.Close()

		p, err := loadOrNewPilot(database, args[0])
		if err != nil {
			return err
		}
		ship := &pilot.Ship{Name: shipName, Attributes: make(map[string]float64)}
		if shipSystem != "" {
			if ship.System, err = g.Resolve(shipSystem); err != nil {
				return err
			}
		}
		for _, kv := range shipAttrs {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("attribute %q: want name=value", kv)
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("attribute %q: %w", kv, err)
			}
			ship.Attributes[strings.TrimSpace(k)] = f
		}
		if jumpDrive {
			ship.Attributes[pilot.AttrJumpDrive] = 1
		}
		if hyperdrive {
			ship.Attributes[pilot.AttrHyperdrive] = 1
		}

		p.Board(ship)
		if ship.System != 0 {
			p.Visit(ship.System, g.Links(ship.System))
		}
		if err := database.SavePilot(p); err != nil {
			return err
		}
		logger.Success("Pilot", fmt.Sprintf("%s boarded %q in %s", p.Name, ship.Name, systemLabel(g, ship.System)))
		return nil
	},
}

var pilotVisitCmd = &cobra.Command{
	Use:   "visit NAME SYSTEM",
	Short: "Fly a pilot's ship to SYSTEM and mark it visited",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, g, err := openGalaxy()
		if err != nil {
			return err
		}
		defer database.Close()

		p, err := database.LoadPilot(args[0])
		if err != nil {
			return err
		}
		system, err := g.Resolve(args[1])
		if err != nil {
			return err
		}
		p.Arrive(system, g.Links(system))
		if err := database.SavePilot(p); err != nil {
			return err
		}
		logger.Success("Pilot", fmt.Sprintf("%s visited %s", p.Name, systemLabel(g, system)))
		return nil
	},
}

var pilotSeeCmd = &cobra.Command{
	Use:   "see NAME SYSTEM...",
	Short: "Mark systems as seen without visiting them",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, g, err := openGalaxy()
		if err != nil {
			return err
		}
		defer database.Close()

		p, err := loadOrNewPilot(database, args[0])
		if err != nil {
			return err
		}
		for _, ref := range args[1:] {
			system, err := g.Resolve(ref)
			if err != nil {
				return err
			}
			p.See(system)
			if revealLinks {
				p.See(g.Links(system)...)
			}
		}
		return database.SavePilot(p)
	},
}

var pilotShowCmd = &cobra.Command{
	Use:   "show [NAME]",
	Short: "Show a pilot, by default the configured default pilot",
	Args:  cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, g, err := openGalaxy()
		if err != nil {
			return err
		}
		defer database.Close()

		name := database.LoadConfig().DefaultPilot
		if len(args) == 1 {
			name = args[0]
		}
		p, err := database.LoadPilot(name)
		if err != nil {
			return err
		}
		snap := p.Snapshot()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintf(w, "PILOT\t%s\n", snap.Name)
		if ship := snap.Ship(); ship != nil {
			fmt.Fprintf(w, "SHIP\t%s\n", ship.Name)
			fmt.Fprintf(w, "SYSTEM\t%s\n", systemLabel(g, ship.System))
			fmt.Fprintf(w, "JUMP DRIVE\t%v\n", snap.HasJumpDrive())
			fmt.Fprintf(w, "HYPERDRIVE\t%v\n", snap.HasHyperdrive())
		} else {
			fmt.Fprintln(w, "SHIP\t-")
		}
		fmt.Fprintf(w, "SEEN\t%d\n", len(snap.Seen()))
		fmt.Fprintf(w, "VISITED\t%d\n", len(snap.Visited()))
		return nil
	},
}

var pilotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved pilots; the default pilot is marked with *",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(*dbPath)
		if err != nil {
			return err
		}
		defer database.Close()

		def := database.LoadConfig().DefaultPilot
		names, err := database.ListPilots()
		if err != nil {
			return err
		}
		for _, n := range names {
			if n == def {
				n += " *"
			}
			fmt.Println(n)
		}
		return nil
	},
}

func init() {
	pilotBoardCmd.Flags().StringVar(&shipName, "ship", "Shuttle", "ship name")
	pilotBoardCmd.Flags().StringVar(&shipSystem, "system", "", "system the ship starts in (name or ID)")
	pilotBoardCmd.Flags().StringArrayVar(&shipAttrs, "attr", nil, "ship attribute as name=value, repeatable")
	pilotBoardCmd.Flags().BoolVar(&jumpDrive, "jump-drive", false, "fit a jump drive")
	pilotBoardCmd.Flags().BoolVar(&hyperdrive, "hyperdrive", false, "fit a hyperdrive")

	pilotSeeCmd.Flags().BoolVar(&revealLinks, "links", false, "also mark each system's linked systems seen")

	pilotCmd.AddCommand(pilotBoardCmd, pilotVisitCmd, pilotSeeCmd, pilotShowCmd, pilotListCmd)
}
