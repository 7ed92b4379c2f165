package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"ythelper/cache"
)

func cmdCache(args []string) {
	if len(args) == 0 {
		printCacheUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "info":
		cmdCacheInfo(args[1:])
	case "purge":
		cmdCachePurge(args[1:])
	case "inspect":
		cmdCacheInspect(args[1:])
	case "help", "-h", "--help":
		printCacheUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown cache subcommand %q\n\n", args[0])
		printCacheUsage()
		os.Exit(1)
	}
}

func printCacheUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  ythelper cache info                        Show cache statistics
  ythelper cache purge [-f]                  Delete all cached entries
  ythelper cache inspect <video|channel> <id>  Print one cached document
`)
}

func cmdCacheInfo(args []string) {
	fs := flag.NewFlagSet("cache info", flag.ExitOnError)
	fs.Parse(args)

	cfg := loadConfig()

	err := cache.With(cfg.CachePath, func(c *cache.Cache) error {
		info, err := c.Info(context.Background())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Path\t%s\n", info.Path)
		fmt.Fprintf(w, "Size\t%s\n", formatSize(info.SizeBytes))
		fmt.Fprintf(w, "Videos\t%d\n", info.Videos.Count)
		writeBounds(w, "  ", info.Videos)
		fmt.Fprintf(w, "Channels\t%d\n", info.Channels.Count)
		writeBounds(w, "  ", info.Channels)
		return w.Flush()
	})
	if err != nil {
		fatal("%v", err)
	}
}

func writeBounds(w *tabwriter.Writer, indent string, s cache.KindStats) {
	if s.Count == 0 {
		return
	}
	fmt.Fprintf(w, "%soldest\t%s\n", indent, s.Oldest.Local().Format(time.DateTime))
	fmt.Fprintf(w, "%snewest\t%s\n", indent, s.Newest.Local().Format(time.DateTime))
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func cmdCachePurge(args []string) {
	fs := flag.NewFlagSet("cache purge", flag.ExitOnError)
	force := fs.Bool("f", false, "Purge without confirmation")
	fs.Parse(args)

	cfg := loadConfig()

	if !*force {
		fmt.Fprintf(os.Stderr, "Purge all cached entries from %s? [y/N] ", cfg.CachePath)
		var answer string
		fmt.Fscanln(os.Stdin, &answer)
		if answer != "y" && answer != "Y" {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return
		}
	}

	err := cache.With(cfg.CachePath, func(c *cache.Cache) error {
		n, err := c.PurgeAll(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d entries\n", n)
		return nil
	})
	if err != nil {
		fatal("%v", err)
	}
}

func cmdCacheInspect(args []string) {
	fs := flag.NewFlagSet("cache inspect", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ythelper cache inspect <video|channel> <id>\n")
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) < 2 {
		fs.Usage()
		os.Exit(1)
	}
	kind, id := argv[0], argv[1]

	cfg := loadConfig()

	// The exit happens after cache.With returns so the deferred cache
	// release still runs.
	exitCode := 0
	err := cache.With(cfg.CachePath, func(c *cache.Cache) error {
		ctx := context.Background()

		var entry *cache.Entry
		var err error
		switch kind {
		case "video":
			entry, err = c.GetVideo(ctx, id)
		case "channel":
			entry, err = c.GetChannel(ctx, id)
		default:
			return fmt.Errorf("unknown kind %q (use video or channel)", kind)
		}
		if err != nil {
			return err
		}
		if entry == nil {
			fmt.Fprintf(os.Stderr, "No cached %s with id %s\n", kind, id)
			exitCode = 1
			return nil
		}

		fmt.Fprintf(os.Stderr, "Cached at %s\n", entry.Timestamp.Local().Format(time.DateTime))
		fmt.Println(string(entry.Content))
		return nil
	})
	if err != nil {
		fatal("%v", err)
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
