package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"fill-stats/internal/logging"
	"fill-stats/internal/wsapi"
)

// query sends stdin to a running server in batches and prints the replies.
func main() {
	endpoint := flag.String("endpoint", "ws://localhost:8080/ws", "Server websocket endpoint")
	batchSize := flag.Int("batch-size", 1000, "Query lines per websocket message")
	logLevel := flag.String("log-level", "warn", "Log level")
	flag.Parse()

	logging.Setup(*logLevel, "console")
	logger := log.With().Str("cmd", "query").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := wsapi.Dial(ctx, *endpoint, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect")
	}

	out := bufio.NewWriter(os.Stdout)
	err = run(ctx, client, os.Stdin, out, *batchSize)
	out.Flush()
	client.Close()
	if err != nil {
		logger.Fatal().Err(err).Msg("query failed")
	}
}

func run(ctx context.Context, client *wsapi.Client, in io.Reader, out io.Writer, batchSize int) error {
	flush := func(batch []string) error {
		results, err := client.Query(ctx, batch)
		if err != nil {
			return err
		}
		for _, r := range results {
			if _, err := fmt.Fprintln(out, r); err != nil {
				return err
			}
		}
		return nil
	}

	var batch []string
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		batch = append(batch, sc.Text())
		if len(batch) >= batchSize {
			if err := flush(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return flush(batch)
}
