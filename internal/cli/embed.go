package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"embedd/internal/backend"
	"embedd/internal/embed"
	"embedd/internal/manager"
	"embedd/pkg/types"
)

type embedFlags struct {
	taskType       string
	dimensionality int
	normalize      bool
	batchSize      int
}

// buildEmbedCmd embeds texts once without starting the server. Texts come
// from the arguments, or one per line on stdin when none are given.
func buildEmbedCmd(o *options) *cobra.Command {
	var f embedFlags
	cmd := &cobra.Command{
		Use:     "embed [text...]",
		Short:   "Embed texts and print the JSON response",
		Example: "  embedd embed --backend hash --task-type search_query \"what is a matryoshka embedding\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmbed(cmd, o, f, args)
		},
	}
	cmd.Flags().StringVar(&f.taskType, "task-type", string(embed.DefaultTaskType), "search_document|search_query|clustering|classification")
	cmd.Flags().IntVar(&f.dimensionality, "dimensionality", embed.MaxDimension, "Output width: 64|128|256|512|768")
	cmd.Flags().BoolVar(&f.normalize, "normalize", true, "L2-normalize the output vectors")
	cmd.Flags().IntVar(&f.batchSize, "batch-size", 0, "Texts per model call (0 uses the configured default)")
	return cmd
}

func runEmbed(cmd *cobra.Command, o *options, f embedFlags, args []string) error {
	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}
	texts := args
	if len(texts) == 0 {
		sc := bufio.NewScanner(cmd.InOrStdin())
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				texts = append(texts, line)
			}
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}
	if len(texts) == 0 {
		return fmt.Errorf("no texts to embed")
	}
	task, err := embed.ParseTaskType(f.taskType)
	if err != nil {
		return err
	}
	if !embed.ValidDimension(f.dimensionality) {
		return fmt.Errorf("dimensionality must be one of %v", embed.Dimensions)
	}
	if f.batchSize < 0 || f.batchSize > cfg.MaxBatchSize {
		return fmt.Errorf("batch-size must be between 1 and %d, or 0 for the default", cfg.MaxBatchSize)
	}

	log := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	loader, err := backend.New(cfg)
	if err != nil {
		return err
	}
	mgr := manager.New(manager.Config{Loader: loader, Reclaim: backend.Reclaim(), Logger: &log})
	defer func() {
		if cerr := mgr.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("release model")
		}
	}()

	mdl, release, err := mgr.Acquire(cmd.Context())
	if err != nil {
		return err
	}
	vecs, err := embed.New(cfg.NativeDim, cfg.DefaultBatchSize).Generate(cmd.Context(), mdl, embed.Request{
		Texts:          texts,
		TaskType:       task,
		Dimensionality: f.dimensionality,
		Normalize:      f.normalize,
		BatchSize:      f.batchSize,
	})
	release()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(types.EmbeddingResponse{
		Embeddings:     vecs,
		Model:          cfg.ModelName,
		TaskType:       string(task),
		Dimensionality: f.dimensionality,
		NumTexts:       len(vecs),
	})
}
