package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/oarkflow/log"
	"github.com/urfave/cli/v2"

	"github.com/oarkflow/tabular/importer"
	"github.com/oarkflow/tabular/pkg/adapters/sqladapter"
	"github.com/oarkflow/tabular/pkg/config"
	"github.com/oarkflow/tabular/pkg/logs"
	"github.com/oarkflow/tabular/pkg/mapping"
	"github.com/oarkflow/tabular/pkg/readers"
	"github.com/oarkflow/tabular/pkg/schema"
)

func main() {
	app := &cli.App{
		Name:  "tabular",
		Usage: "Import spreadsheet files into relational tables",
		Commands: []*cli.Command{
			{
				Name:  "import",
				Usage: "Run the import described by a configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the yaml run configuration",
						Required: true,
					},
				},
				Action: runImport,
			},
			{
				Name:  "preview",
				Usage: "Print the first rows of a source file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "Source file"},
					&cli.StringFlag{Name: "sheet", Usage: "Worksheet name for workbooks"},
					&cli.IntFlag{Name: "rows", Value: 10, Usage: "Number of rows to show"},
				},
				Action: previewFile,
			},
			{
				Name:  "sheets",
				Usage: "List the worksheets of a workbook",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "Workbook file"},
				},
				Action: listSheets,
			},
			{
				Name:  "tables",
				Usage: "List importable tables in the configured database",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Required: true, Usage: "Path to the yaml run configuration"},
				},
				Action: listTables,
			},
			{
				Name:  "describe",
				Usage: "Show the column descriptor of a table",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Required: true, Usage: "Path to the yaml run configuration"},
					&cli.StringFlag{Name: "table", Aliases: []string{"t"}, Usage: "Table name, defaults to import.table"},
				},
				Action: describeTable,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.DefaultLogger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func connect(cfg *config.Config) (*sqladapter.Conn, error) {
	db, err := cfg.Database.Connect()
	if err != nil {
		return nil, err
	}
	return sqladapter.New(db, cfg.Database.Driver), nil
}

func runImport(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := connect(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	table, err := schema.Load(ctx, conn, cfg.Import.Table)
	if err != nil {
		return err
	}
	src, err := readers.OpenSheet(cfg.Import.File, cfg.Import.Sheet)
	if err != nil {
		return err
	}
	defer src.Close()

	compiled, err := mapping.Compile(table, src.Header(), cfg.Import.Rules(), cfg.Import.RunMode())
	if err != nil {
		return err
	}

	opts := []importer.Option{importer.WithChunkSize(cfg.Import.ChunkSize)}
	if cfg.Import.Truncate {
		opts = append(opts, importer.WithTruncate())
	}
	if cfg.Import.LogFile != "" {
		fileLog, err := logs.NewFileLog(cfg.Import.LogFile)
		if err != nil {
			return err
		}
		defer fileLog.Close()
		opts = append(opts, importer.WithEventLog(fileLog))
	}

	sink := importer.NewChannelSink(16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range sink.C() {
			fmt.Printf("\rattempted %d  succeeded %d  failed %d", p.Attempted, p.Succeeded, p.Failed)
		}
		fmt.Println()
	}()
	opts = append(opts, importer.WithProgress(sink))

	res, runErr := importer.New(conn, opts...).Run(ctx, compiled, src)
	sink.Close()
	<-done
	if res != nil {
		fmt.Printf("run %s %s: %d attempted, %d succeeded, %d failed\n",
			res.RunID, res.Outcome, res.Attempted, res.Succeeded, res.Failed)
		for _, f := range res.Failures {
			fmt.Printf("  row %d: %s\n", f.Index, f.Reason)
		}
	}
	return runErr
}

func previewFile(c *cli.Context) error {
	src, err := readers.OpenSheet(c.String("file"), c.String("sheet"))
	if err != nil {
		return err
	}
	defer src.Close()
	rows, err := readers.Preview(src, c.Int("rows"))
	if err != nil {
		return err
	}
	header := src.Header()
	fmt.Println(header)
	for _, row := range rows {
		line := make([]any, len(header))
		for i, h := range header {
			line[i] = row[h]
		}
		fmt.Println(line)
	}
	return nil
}

func listSheets(c *cli.Context) error {
	sheets, err := readers.Sheets(c.String("file"))
	if err != nil {
		return err
	}
	for _, name := range sheets {
		fmt.Println(name)
	}
	return nil
}

func listTables(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	conn, err := connect(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	names, err := schema.Tables(context.Background(), conn)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func describeTable(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	name := c.String("table")
	if name == "" {
		name = cfg.Import.Table
	}
	conn, err := connect(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	table, err := schema.Load(context.Background(), conn, name)
	if err != nil {
		return err
	}
	for _, col := range table.Columns {
		flags := ""
		if col.PrimaryKey {
			flags += " pk"
		}
		if !col.Nullable {
			flags += " not-null"
		}
		if col.HasDefault {
			flags += " default"
		}
		fmt.Printf("%2d %-30s %-8s%s\n", col.Ordinal, col.Name, col.Kind, flags)
	}
	return nil
}
