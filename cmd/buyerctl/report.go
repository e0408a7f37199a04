package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/config"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/export"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/ingest"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/service"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/session"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/storage"
)

const formatTable = "table"

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Compute one dashboard tab from an inventory and a sales export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "inventory", Usage: "Inventory export (path, or object key with --bucket)", Required: true},
			&cli.StringFlag{Name: "sales", Usage: "Sales export (path, or object key with --bucket)", Required: true},
			&cli.StringFlag{Name: "bucket", Usage: "Read inputs from this object storage bucket", EnvVars: []string{"STORAGE_BUCKET"}},
			&cli.StringFlag{Name: "tab", Value: string(domain.TabInventory), Usage: "inventory, reorder, overstock, expiring or slow_movers"},
			&cli.IntFlag{Name: "window", Value: domain.DefaultWindowDays, Usage: "Velocity window in days (28, 56 or 84)"},
			&cli.StringFlag{Name: "top-n", Value: "25", Usage: "25, 50, 100 or all"},
			&cli.StringFlag{Name: "sort", Value: string(domain.SortDollarsDesc)},
			&cli.StringFlag{Name: "search"},
			&cli.StringFlag{Name: "category"},
			&cli.StringFlag{Name: "subcategory"},
			&cli.StringFlag{Name: "vendor"},
			&cli.StringFlag{Name: "expiration", Value: "any", Usage: "any, 30, 60 or 90"},
			&cli.BoolFlag{Name: "include-no-stock", Usage: "Keep SKUs with zero on hand"},
			&cli.TimestampFlag{Name: "as-of", Layout: "2006-01-02", Usage: "End the velocity window on this date"},
			&cli.StringFlag{Name: "format", Value: formatTable, Usage: "table, csv or xlsx"},
			&cli.StringFlag{Name: "out", Usage: "Output file (default stdout)"},
			&cli.StringFlag{Name: "upload-key", Usage: "Also publish the rendered export to this object key"},
			&cli.Int64Flag{Name: "max-bytes", Value: ingest.DefaultMaxBytes, EnvVars: []string{"UPLOAD_MAX_BYTES"}},
		},
		Action: runReport,
	}
}

func runReport(c *cli.Context) error {
	ctx := c.Context
	tab, ok := domain.ParseTab(c.String("tab"))
	if !ok {
		return cli.Exit(fmt.Sprintf("unknown tab %q", c.String("tab")), 2)
	}
	filter, err := reportFilter(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	format := strings.ToLower(c.String("format"))
	var exportFormat export.Format
	if format != formatTable {
		if exportFormat, err = export.ParseFormat(format); err != nil {
			return cli.Exit(err.Error(), 2)
		}
	}

	var store storage.ObjectStorage
	if bucket := c.String("bucket"); bucket != "" || c.String("upload-key") != "" {
		cfg := config.Load().Storage
		if bucket != "" {
			cfg.Bucket = bucket
		}
		client, err := storage.NewMinioClient(cfg)
		if err != nil {
			return err
		}
		store = client
	}

	maxBytes := c.Int64("max-bytes")
	inventory, err := openInput(ctx, store, c.String("bucket") != "", ingest.TableInventory, c.String("inventory"), maxBytes)
	if err != nil {
		return err
	}
	sales, err := openInput(ctx, store, c.String("bucket") != "", ingest.TableSales, c.String("sales"), maxBytes)
	if err != nil {
		return err
	}

	svc := service.NewDashboardService(session.NewStore(0), nil, service.Options{MaxUploadBytes: maxBytes})
	snapshot, parsed, err := svc.Ingest(ctx, inventory, sales)
	if err != nil {
		return err
	}
	for _, report := range []ingest.ParseReport{parsed.Inventory, parsed.Sales} {
		for _, rowErr := range report.Malformed {
			log.Warn().Str("table", rowErr.Table).Int("row", rowErr.Row).Msg(rowErr.Reason)
		}
	}

	view, err := service.BuildView(snapshot, tab, filter, time.Now())
	if err != nil {
		return err
	}
	for _, notice := range view.Notices {
		log.Info().Str("code", notice.Code).Msg(notice.Message)
	}

	var rendered bytes.Buffer
	if exportFormat == "" {
		err = writeTable(&rendered, view)
	} else {
		err = export.Write(&rendered, exportFormat, view)
	}
	if err != nil {
		return err
	}

	if key := c.String("upload-key"); key != "" {
		contentType := "text/plain; charset=utf-8"
		if exportFormat != "" {
			contentType = exportFormat.ContentType()
		}
		if err := store.UploadObject(ctx, key, rendered.Bytes(), contentType); err != nil {
			return err
		}
		log.Info().Str("key", key).Int("bytes", rendered.Len()).Msg("report uploaded")
	}

	if out := c.String("out"); out != "" {
		if err := os.WriteFile(out, rendered.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		log.Info().Str("path", out).Int("rows", len(view.Rows)).Msg("report written")
		return nil
	}
	_, err = c.App.Writer.Write(rendered.Bytes())
	return err
}

// openInput reads a local file, or an object when fromBucket is set.
func openInput(ctx context.Context, store storage.ObjectStorage, fromBucket bool, table, name string, limit int64) (service.Upload, error) {
	if fromBucket {
		data, err := store.ReadObject(ctx, name, limit)
		if err != nil {
			return service.Upload{}, err
		}
		return service.Upload{Filename: filepath.Base(name), Size: int64(len(data)), Reader: bytes.NewReader(data)}, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return service.Upload{}, fmt.Errorf("open %s export: %w", table, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return service.Upload{}, err
	}
	if err := ingest.CheckDeclaredSize(table, info.Size(), limit); err != nil {
		return service.Upload{}, err
	}
	data, err := ingest.ReadLimited(table, f, limit)
	if err != nil {
		return service.Upload{}, err
	}
	return service.Upload{Filename: filepath.Base(name), Size: int64(len(data)), Reader: bytes.NewReader(data)}, nil
}

func reportFilter(c *cli.Context) (domain.Filter, error) {
	filter := domain.DefaultFilter()
	filter.WindowDays = c.Int("window")
	if !domain.ValidWindow(filter.WindowDays) {
		return filter, domain.ErrInvalidWindow
	}

	n, ok := domain.ParseTopN(c.String("top-n"))
	if !ok {
		return filter, fmt.Errorf("top-n must be 25, 50, 100 or all")
	}
	filter.TopN = n

	key, ok := domain.ParseSortKey(c.String("sort"))
	if !ok {
		return filter, fmt.Errorf("unknown sort %q", c.String("sort"))
	}
	filter.Sort = key

	w, ok := domain.ParseExpirationWindow(c.String("expiration"))
	if !ok {
		return filter, fmt.Errorf("expiration must be any, 30, 60 or 90")
	}
	filter.Expiration = w

	filter.Search = c.String("search")
	filter.Category = c.String("category")
	filter.Subcategory = c.String("subcategory")
	filter.Vendor = c.String("vendor")
	filter.OnHandGtZero = !c.Bool("include-no-stock")
	if asOf := c.Timestamp("as-of"); asOf != nil {
		t := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
		filter.AsOf = &t
	}
	return filter, nil
}

// writeTable prints the export columns aligned, followed by the KPI tiles.
func writeTable(w io.Writer, view *domain.View) error {
	header, rows := export.Table(view)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	k := view.KPIs
	fmt.Fprintf(w, "\n%d rows, %d in stock, %d reorder, %d overstock, %d no stock",
		k.Rows, k.SkusInStock, k.ReorderCount, k.OverstockCount, k.NoStockCount)
	if k.TotalDollarsOnHand != nil {
		fmt.Fprintf(w, ", $%s on hand", k.TotalDollarsOnHand.StringFixed(2))
	}
	if k.ExpiringCount != nil {
		fmt.Fprintf(w, ", %d expiring", *k.ExpiringCount)
	}
	if k.SlowMoverCount != nil {
		fmt.Fprintf(w, ", %d slow movers", *k.SlowMoverCount)
	}
	_, err := fmt.Fprintln(w)
	return err
}
