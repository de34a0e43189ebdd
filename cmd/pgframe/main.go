// Command pgframe is a small console around the library: it lists schemas
// and tables, reports shapes and column documentation, bootstraps the
// registry, and manages the result cache.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dataplumb/pgframe/cache"
	"github.com/dataplumb/pgframe/config"
	"github.com/dataplumb/pgframe/frame"
	"github.com/dataplumb/pgframe/internal/logging"
	"github.com/dataplumb/pgframe/pgclient"
)

var version = "dev"

// CLI flags
var (
	connectionName string
	configPath     string
	verbosity      int
	logFile        string
	cacheDir       string
)

var log zerolog.Logger

func main() {
	rootCmd := &cobra.Command{
		Use:           "pgframe",
		Short:         "pgframe - tabular convenience console for PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = logging.NewWithFile(verbosity, logFile)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&connectionName, "connection", "c", "", "named connection from the connections file")
	pf.StringVar(&configPath, "config", "", "connections file (default ~/.pgframe/connections.yaml)")
	pf.CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v metadata, -vv SQL echo)")
	pf.StringVar(&logFile, "log-file", "", "also write logs to this rotated file")
	pf.StringVar(&cacheDir, "cache-dir", "", "result cache directory (default ~/.pgframe/cache)")

	rootCmd.AddCommand(
		schemasCmd(),
		tablesCmd(),
		columnsCmd(),
		shapeCmd(),
		describeCmd(),
		bootstrapCmd(),
		cacheCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// connect builds a client from the persistent flags.
func connect(ctx context.Context) (*pgclient.Client, error) {
	cfg, err := config.Named(configPath, connectionName)
	if err != nil {
		return nil, err
	}
	return pgclient.Connect(ctx, cfg,
		pgclient.WithVerbosity(verbosity),
		pgclient.WithLogger(log),
	)
}

func schemasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List user schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			schemas, err := c.SchemaNames(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range schemas {
				fmt.Println(s)
			}
			return nil
		},
	}
}

func tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables <schema>",
		Short: "List tables and views of a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			listing, err := c.ListTables(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printFrame(listing)
			return nil
		},
	}
}

func columnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns <table>",
		Short: "Show column names, types, and comments of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			meta, err := c.Metadata(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printFrame(meta)
			return nil
		},
	}
}

func shapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shape <table>",
		Short: "Report (rows, columns) of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			rows, cols, err := c.Shape(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%d rows, %d columns\n", rows, cols)
			return nil
		},
	}
}

func describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Show registry information (creation date, author) of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			info, ok, err := c.Describe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Printf("%s.%s is not in the registry\n", info.Schema, info.Name)
				return nil
			}
			fmt.Printf("table:      %s.%s\n", info.Schema, info.Name)
			fmt.Printf("created at: %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("created by: %s\n", info.CreatedBy)
			return nil
		},
	}
}

func bootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create or upgrade the registry schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			return c.Bootstrap(cmd.Context())
		},
	}
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the result cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove every cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ca, err := cache.Open(cacheDir, 0, log)
			if err != nil {
				return err
			}
			return ca.Clean()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "size",
		Short: "Report the cache size in bytes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ca, err := cache.Open(cacheDir, 0, log)
			if err != nil {
				return err
			}
			size, err := ca.Size()
			if err != nil {
				return err
			}
			fmt.Printf("%d bytes in %s\n", size, ca.Dir())
			return nil
		},
	})
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("pgframe", version)
		},
	}
}

// printFrame renders a frame as aligned plain text.
func printFrame(f *frame.Frame) {
	names := f.Names()
	width := make([]int, len(names))
	cells := make([][]string, f.Len())
	for i, n := range names {
		width[i] = len(n)
	}
	for r := 0; r < f.Len(); r++ {
		row := f.Row(r)
		cells[r] = make([]string, len(row))
		for i, v := range row {
			s := ""
			if v != nil {
				s = fmt.Sprint(v)
			}
			cells[r][i] = s
			if len(s) > width[i] {
				width[i] = len(s)
			}
		}
	}
	var b strings.Builder
	for i, n := range names {
		fmt.Fprintf(&b, "%-*s  ", width[i], n)
	}
	fmt.Println(strings.TrimRight(b.String(), " "))
	for _, row := range cells {
		b.Reset()
		for i, s := range row {
			fmt.Fprintf(&b, "%-*s  ", width[i], s)
		}
		fmt.Println(strings.TrimRight(b.String(), " "))
	}
}
