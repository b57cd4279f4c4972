package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adfharrison1/go-docdb/pkg/api"
	"github.com/adfharrison1/go-docdb/pkg/config"
	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/adfharrison1/go-docdb/pkg/query"
	"github.com/adfharrison1/go-docdb/pkg/server"
	"github.com/spf13/cobra"
)

var (
	port           int
	collectionName string
	queryJSON      string
	limit          int
	offset         int

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured collections over HTTP",
		RunE:  runServe,
	}
	reindexCmd = &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the indexes of a collection from storage and report its size",
		RunE:  runReindex,
	}
	findCmd = &cobra.Command{
		Use:   "find",
		Short: "Run a JSON query against a collection and print the matching documents",
		Example: `  go-docdb find -c docdb.yaml --collection characters --query '{"age": {"$gt": 30}}'
  go-docdb find -c docdb.yaml --collection characters --query '{"familyName": "stark"}' --limit 5`,
		RunE: runFind,
	}
)

func init() {
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "override the configured server port")

	reindexCmd.Flags().StringVar(&collectionName, "collection", "", "collection to reindex (all when empty)")

	findCmd.Flags().StringVar(&collectionName, "collection", "", "collection to query")
	findCmd.Flags().StringVarP(&queryJSON, "query", "q", "{}", "query as a JSON object")
	findCmd.Flags().IntVar(&limit, "limit", 0, "maximum number of documents to print (0 for all)")
	findCmd.Flags().IntVar(&offset, "offset", 0, "number of matches to skip")
	_ = findCmd.MarkFlagRequired("collection")
}

func runServe(cmd *cobra.Command, args []string) error {
	if port != 0 {
		cfg.Server.Port = port
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if cfg.Storage.Backend == config.BackendMemory && cfg.Storage.SnapshotFile == "" {
		logger.Warn().Msg("memory storage without snapshot_file: data is lost on shutdown")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	return srv.ListenAndServe(ctx)
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	names := srv.CollectionNames()
	if collectionName != "" {
		names = []string{collectionName}
	}
	for _, name := range names {
		c, err := srv.Collection(name)
		if err != nil {
			return err
		}
		start := time.Now()
		if err := c.IndexAllDocuments(ctx); err != nil {
			return fmt.Errorf("reindex %s: %w", name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d documents, %d indexes, %s\n",
			name, c.Stats().Documents, len(c.Indexes()), time.Since(start).Round(time.Millisecond))
	}
	return nil
}

func runFind(cmd *cobra.Command, args []string) error {
	var q query.Query
	if err := json.Unmarshal([]byte(queryJSON), &q); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidQuery, err)
	}

	ctx := cmd.Context()
	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	c, err := srv.Collection(collectionName)
	if err != nil {
		return err
	}
	cur, err := c.Find(ctx, q)
	if err != nil {
		return err
	}
	result, err := api.Page(ctx, cur, &domain.PaginationOptions{Limit: limit, Offset: offset})
	if err != nil {
		return err
	}
	logger.Debug().Int64("loads", c.Stats().Loads).Int("total", result.Total).Msg("find")

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
