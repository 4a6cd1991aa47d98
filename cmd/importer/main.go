package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/feichai0017/correspondence-tracker/config"
	"github.com/feichai0017/correspondence-tracker/internal/repository"
	"github.com/feichai0017/correspondence-tracker/internal/service/importer"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

func main() {
	sheet := flag.String("sheet", "", "sheet to import (default: first sheet)")
	reindex := flag.Bool("reindex", false, "recompute sort keys of every stored document")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-sheet name] [-reindex] [ledger.xlsx]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 && !*reindex {
		flag.Usage()
		os.Exit(2)
	}

	appCfg := config.GetAppConfig()
	log, err := logger.NewLogger(
		logger.WithLevel(appCfg.LogLevel),
		logger.WithEncoding("console"),
		logger.WithOutputPaths([]string{"stderr"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := repository.Open(appCfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to open database", logger.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	imp := importer.New(repository.NewDocumentRepository(db), log)

	if path := flag.Arg(0); path != "" {
		report, err := imp.ImportFile(ctx, path, *sheet)
		if err != nil {
			log.Fatal("Import failed", logger.Error(err))
		}
		printReport(report)
	}

	if *reindex {
		n, err := imp.Reindex(ctx)
		if err != nil {
			log.Fatal("Reindex failed", logger.Error(err))
		}
		fmt.Printf("Sort keys updated: %d\n", n)
	}
}

func printReport(r *importer.Report) {
	for _, f := range r.Failures {
		fmt.Printf("  Error en %v\n", f)
	}
	line := strings.Repeat("=", 50)
	fmt.Println(line)
	fmt.Println("RESUMEN DE IMPORTACIÓN:")
	fmt.Printf("  - Nuevos importados: %d\n", r.Imported)
	fmt.Printf("  - Actualizados: %d\n", r.Updated)
	fmt.Printf("  - Errores: %d\n", r.Errors())
	fmt.Printf("  - Total procesados: %d\n", r.Total())
	fmt.Println(line)
}
