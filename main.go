package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"starmap/internal/db"
	"starmap/internal/graph"
	"starmap/internal/logger"
	"starmap/internal/mapdata"
	"starmap/internal/navigation"
	"starmap/internal/pilot"
)

var version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:           "starmap",
		Short:         "Jump distances and routes across a star map",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	dbPath *string
)

func init() {
	dbPath = rootCmd.PersistentFlags().String("db", envOrDefault("STARMAP_DB", db.DefaultPath()), "SQLite database file")

	distancesCmd.Flags().StringVar(&fromFlag, "from", "", "origin system (name or ID)")
	distancesCmd.Flags().StringVar(&pilotFlag, "pilot", "", "use this pilot's ship and map knowledge")
	distancesCmd.Flags().StringVar(&policyFlag, "policy", "", "with --pilot, override the policy the ship's drives pick (unrestricted, hyperdrive, jump-drive, none)")
	distancesCmd.MarkFlagsMutuallyExclusive("from", "pilot")

	routeCmd.Flags().StringVar(&fromFlag, "from", "", "start system (name or ID)")
	routeCmd.Flags().StringVar(&pilotFlag, "pilot", "", "start from this pilot's system using what the pilot knows")
	routeCmd.Flags().StringVar(&toFlag, "to", "", "destination system (name or ID)")
	routeCmd.Flags().StringVar(&policyFlag, "policy", "", "with --pilot, override the policy the ship's drives pick")
	routeCmd.MarkFlagRequired("to")
	routeCmd.MarkFlagsMutuallyExclusive("from", "pilot")
	routeCmd.MarkFlagsOneRequired("from", "pilot")

	serveCmd.Flags().IntVar(&portFlag, "port", 0, "HTTP server port (default from config)")

	rootCmd.AddCommand(importCmd, distancesCmd, routeCmd, pilotCmd, serveCmd)
}

var (
	fromFlag   string
	toFlag     string
	pilotFlag  string
	policyFlag string
	portFlag   int
)

var importCmd = &cobra.Command{
	Use:   "import PATH",
	Short: "Load a galaxy (JSONL directory, .zip or .yaml) into the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := mapdata.Load(args[0])
		if err != nil {
			return err
		}
		database, err := db.Open(*dbPath)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.SaveGalaxy(data.Galaxy); err != nil {
			return fmt.Errorf("save galaxy: %w", err)
		}
		cfg := database.LoadConfig()
		cfg.GalaxySource = args[0]
		cfg.JumpRange = data.JumpRange
		if err := database.SaveConfig(cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		logger.Success("Import", fmt.Sprintf("%d systems from %s", data.Galaxy.Len(), args[0]))
		return nil
	},
}

var distancesCmd = &cobra.Command{
	Use:   "distances",
	Short: "List every reachable system with its jump count",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, g, err := openGalaxy()
		if err != nil {
			return err
		}
		defer database.Close()

		var m *navigation.DistanceMap
		if pilotFlag != "" {
			if m, err = pilotMap(database, g, pilotFlag); err != nil {
				return err
			}
		} else {
			from := fromFlag
			if from == "" {
				from = database.LoadConfig().DefaultOrigin
			}
			origin, err := g.Resolve(from)
			if err != nil {
				return err
			}
			m = navigation.New(origin, g)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintf(w, "# policy: %s\n", m.Policy())
		fmt.Fprintln(w, "SYSTEM\tJUMPS\tNEXT")
		for _, id := range m.Systems() {
			next, _ := m.Route(id)
			fmt.Fprintf(w, "%s\t%d\t%s\n", systemLabel(g, id), m.Distance(id), systemLabel(g, next))
		}
		return nil
	},
}

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Print the jumps from a system or a pilot's position to a destination",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, g, err := openGalaxy()
		if err != nil {
			return err
		}
		defer database.Close()

		to, err := g.Resolve(toFlag)
		if err != nil {
			return err
		}

		var m *navigation.DistanceMap
		if pilotFlag != "" {
			if m, err = pilotMap(database, g, pilotFlag); err != nil {
				return err
			}
			if _, ok := m.Origin(); !ok {
				return fmt.Errorf("pilot %s has no ship in a system", pilotFlag)
			}
		} else {
			from, err := g.Resolve(fromFlag)
			if err != nil {
				return err
			}
			m = navigation.New(from, g)
		}

		path := m.PathTo(to)
		if path == nil {
			return fmt.Errorf("no route to %s", systemLabel(g, to))
		}
		names := make([]string, len(path))
		for i, id := range path {
			names[i] = systemLabel(g, id)
		}
		fmt.Printf("%d jumps: %s\n", len(path)-1, strings.Join(names, " -> "))
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("starmap", err.Error())
		os.Exit(1)
	}
}

// openGalaxy opens the database and loads the imported galaxy.
func openGalaxy() (*db.DB, *graph.Galaxy, error) {
	database, err := db.Open(*dbPath)
	if err != nil {
		return nil, nil, err
	}
	g, err := database.LoadGalaxy(database.LoadConfig().JumpRange)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("load galaxy: %w", err)
	}
	if g.Len() == 0 {
		database.Close()
		return nil, nil, fmt.Errorf("no galaxy in %s, run `starmap import` first", *dbPath)
	}
	return database, g, nil
}

func systemLabel(g *graph.Galaxy, id int32) string {
	if name := g.Name(id); name != "" {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

// pilotMap builds the saved pilot's map, honouring --policy.
func pilotMap(database *db.DB, g *graph.Galaxy, name string) (*navigation.DistanceMap, error) {
	p, err := database.LoadPilot(name)
	if err != nil {
		return nil, err
	}
	snap := p.Snapshot()
	if policyFlag == "" {
		return navigation.ForTraveler(snap, g), nil
	}
	policy, err := navigation.ParsePolicy(policyFlag)
	if err != nil {
		return nil, err
	}
	return navigation.WithPolicy(snap, g, policy), nil
}

// loadOrNewPilot returns the saved pilot, or a fresh one if name was never saved.
func loadOrNewPilot(database *db.DB, name string) (*pilot.Pilot, error) {
	p, err := database.LoadPilot(name)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, db.ErrUnknownPilot) {
		return pilot.New(name), nil
	}
	return nil, err
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
