package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/motivaitor/insight/internal/ingest"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Record activity events from Kafka and index them",
	RunE:  runConsume,
}

func runConsume(cmd *cobra.Command, args []string) error {
	if len(cfg.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is empty")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	reader := ingest.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
	defer reader.Close()

	slog.Info("consuming activity events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID)
	proc := ingest.NewProcessor(reader, ingest.NewIndexingHandler(a.db, a.index))
	if err := proc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consume: %w", err)
	}
	return nil
}
