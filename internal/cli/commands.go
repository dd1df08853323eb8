package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvseed/internal/config"
)

func newRunCmd(a *app) *cobra.Command {
	var seedsFile string

	cmd := &cobra.Command{
		Use:   "run [seed...]",
		Short: "Run seeds from the seeds file",
		Long:  "Run the named seeds, or every seed in file order when none are named.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := config.LoadSeedFile(pick(seedsFile, a.cfg.Seed.File))
			if err != nil {
				return err
			}
			seeds, err := sf.Select(args...)
			if err != nil {
				return err
			}
			if len(seeds) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no seeds defined")
				return nil
			}

			router, err := a.openRouter(cmd.Context(), sf.Connections, seeds)
			if err != nil {
				return err
			}
			defer router.Close()

			return a.runSeeds(cmd.Context(), router, seeds, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&seedsFile, "seeds-file", "f", "", "seeds file (default $SEEDS_FILE or seeds.yaml)")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var seedsFile string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List seeds in the seeds file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sf, err := config.LoadSeedFile(pick(seedsFile, a.cfg.Seed.File))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTABLE\tCONNECTION\tFILE")
			for _, s := range sf.Seeds {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, s.Table, displayName(s.Connection), s.File)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&seedsFile, "seeds-file", "f", "", "seeds file (default $SEEDS_FILE or seeds.yaml)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var (
		s        config.Seed
		driver   string
		dsn      string
		mapping  string
		hashable []string
		noHash   bool
	)

	cmd := &cobra.Command{
		Use:   "import --table TABLE --file FILE",
		Short: "Import a single CSV file without a seeds file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if s.Name == "" {
				s.Name = s.Table
			}
			m, err := parseMapping(mapping)
			if err != nil {
				return err
			}
			s.Mapping = m
			switch {
			case noHash:
				s.Hashable = []string{}
			case cmd.Flags().Changed("hashable"):
				s.Hashable = hashable
			}

			conns := map[string]config.Connection{}
			if dsn != "" {
				s.Connection = "import"
				conns[s.Connection] = config.Connection{Driver: driver, DSN: dsn}
			}
			sf := &config.SeedFile{Connections: conns, Seeds: []config.Seed{s}}
			if err := sf.Validate(); err != nil {
				return err
			}

			router, err := a.openRouter(cmd.Context(), conns, sf.Seeds)
			if err != nil {
				return err
			}
			defer router.Close()

			return a.runSeeds(cmd.Context(), router, sf.Seeds, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&s.Table, "table", "t", "", "destination table (required)")
	f.StringVar(&s.File, "file", "", "CSV file, optionally gzip-compressed (required)")
	f.StringVar(&driver, "driver", config.DriverPostgres, "driver for --dsn (postgres, sqlite3)")
	f.StringVar(&dsn, "dsn", "", "connection string (default $DATABASE_URL)")
	f.StringVar(&s.Delimiter, "delimiter", "", "field delimiter (default $SEED_DELIMITER)")
	f.IntVar(&s.OffsetRows, "offset", 0, "rows to discard before the header")
	f.BoolVar(&s.Trim, "trim", false, "trim whitespace from values")
	f.BoolVar(&s.Timestamps, "timestamps", false, "set created_at and updated_at")
	f.StringVar(&mapping, "map", "", "explicit mapping such as 0=id,2=email; the header row is then data")
	f.StringSliceVar(&hashable, "hashable", nil, "columns to hash (default $SEED_HASHABLE)")
	f.BoolVar(&noHash, "no-hash", false, "disable hashing")
	f.IntVar(&s.ChunkSize, "chunk-size", 0, "rows per insert (default $SEED_CHUNK_SIZE)")
	f.BoolVar(&s.SanitizeUTF8, "sanitize-utf8", false, "replace invalid UTF-8 bytes")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// parseMapping parses "0=id,2=email" into positions and columns.
func parseMapping(s string) (map[int]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	m := make(map[int]string)
	for _, part := range strings.Split(s, ",") {
		pos, col, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("mapping %q: want position=column", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(pos))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("mapping %q: position must be a non-negative integer", part)
		}
		m[n] = strings.TrimSpace(col)
	}
	return m, nil
}

func pick(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
