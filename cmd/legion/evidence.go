package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/legionforge/engine/internal/config"
	"github.com/legionforge/engine/internal/types"
)

var (
	evidenceGuildID    int
	evidenceEntityType string
	evidenceEntityID   int
	evidenceNote       string
	evidenceCreatedBy  string
	evidenceTimestamp  string
)

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Commands for the GM annotation log",
}

var evidenceAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a GM annotation to an entity",
	RunE: func(cmd *cobra.Command, args []string) error {
		entityType := strings.TrimSpace(evidenceEntityType)
		note := strings.TrimSpace(evidenceNote)
		createdBy := strings.TrimSpace(evidenceCreatedBy)
		if entityType == "" {
			return fmt.Errorf("--entity-type is required")
		}
		if note == "" {
			return fmt.Errorf("--note is required")
		}
		if createdBy == "" {
			return fmt.Errorf("--by is required")
		}

		tsRaw := strings.TrimSpace(evidenceTimestamp)
		if tsRaw == "" {
			tsRaw = time.Now().UTC().Format(time.RFC3339)
		}
		ts, err := time.Parse(time.RFC3339, tsRaw)
		if err != nil {
			return fmt.Errorf("invalid --ts %q: %w", tsRaw, err)
		}

		cfg, _, err := config.LoadEngineConfig(configPath)
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)

		ctx, cancel := signalContext()
		defer cancel()

		s, db, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		e := types.Evidence{
			GuildID:    evidenceGuildID,
			EntityType: entityType,
			EntityID:   evidenceEntityID,
			Note:       note,
			CreatedAt:  ts,
			CreatedBy:  createdBy,
		}
		if err := s.AppendEvidence(ctx, &e); err != nil {
			return fmt.Errorf("append evidence: %w", err)
		}
		logger.Info("appended evidence", "id", e.ID, "guild_id", e.GuildID, "entity_type", e.EntityType, "entity_id", e.EntityID)
		return nil
	},
}

var evidenceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List GM annotations recorded against an entity",
	RunE: func(cmd *cobra.Command, args []string) error {
		entityType := strings.TrimSpace(evidenceEntityType)
		if entityType == "" {
			return fmt.Errorf("--entity-type is required")
		}

		cfg, _, err := config.LoadEngineConfig(configPath)
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)

		ctx, cancel := signalContext()
		defer cancel()

		s, db, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := s.ListEvidence(ctx, evidenceGuildID, entityType, evidenceEntityID)
		if err != nil {
			return fmt.Errorf("list evidence: %w", err)
		}
		for _, e := range items {
			fmt.Printf("%d\t%s\t%s\t%s\n", e.ID, e.CreatedAt.Format(time.RFC3339), e.CreatedBy, e.Note)
		}
		logger.Info("listed evidence", "guild_id", evidenceGuildID, "entity_type", entityType, "entity_id", evidenceEntityID, "count", len(items))
		return nil
	},
}

func init() {
	evidenceAddCmd.Flags().IntVar(&evidenceGuildID, "guild-id", 0, "guild id the annotated entity belongs to")
	evidenceAddCmd.Flags().StringVar(&evidenceEntityType, "entity-type", "", "entity type the annotation is attached to (e.g. unit, territory)")
	evidenceAddCmd.Flags().IntVar(&evidenceEntityID, "entity-id", 0, "id of the annotated entity")
	evidenceAddCmd.Flags().StringVar(&evidenceNote, "note", "", "annotation text")
	evidenceAddCmd.Flags().StringVar(&evidenceCreatedBy, "by", "", "GM identifier recording the annotation")
	evidenceAddCmd.Flags().StringVar(&evidenceTimestamp, "ts", "", "annotation timestamp in RFC3339 (defaults to now UTC)")

	evidenceListCmd.Flags().IntVar(&evidenceGuildID, "guild-id", 0, "guild id the annotated entity belongs to")
	evidenceListCmd.Flags().StringVar(&evidenceEntityType, "entity-type", "", "entity type to list annotations for")
	evidenceListCmd.Flags().IntVar(&evidenceEntityID, "entity-id", 0, "id of the annotated entity")

	evidenceCmd.AddCommand(evidenceAddCmd)
	evidenceCmd.AddCommand(evidenceListCmd)
	rootCmd.AddCommand(evidenceCmd)
}
