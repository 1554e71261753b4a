package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vnkhanh/e-podcast-content/config"
	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/utils"
)

type rootOptions struct {
	dir    string
	output string

	cfg   *config.Config
	log   *logger.Logger
	store utils.AudioStore
}

// NewRootCmd creates the audioctl command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "audioctl",
		Short:         "Quản lý file audio podcast",
		Long:          "audioctl - kiểm tra, migrate tên file audio sang dạng hash, dò URL và dọn file mồ côi",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.dir, "dir", "", "thư mục audio cục bộ (ghi đè AUDIO_DIR, buộc dùng lưu trữ local)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "json", "định dạng kết quả: json | yaml")

	rootCmd.AddCommand(newCheckCmd(opts))
	rootCmd.AddCommand(newMigrateCmd(opts))
	rootCmd.AddCommand(newResolveCmd(opts))
	rootCmd.AddCommand(newCleanupCmd(opts))
	return rootCmd
}

func (o *rootOptions) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	o.cfg = cfg

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	o.log = log.With("cmd", "audioctl")

	if o.dir != "" {
		o.store = utils.NewLocalAudioStore(o.dir)
		return nil
	}
	o.store, err = utils.NewAudioStore(cfg.Audio.Storage, cfg.Audio.Dir, cfg.Supabase.URL, cfg.Supabase.Key, cfg.Supabase.Bucket)
	return err
}

func (o *rootOptions) print(w io.Writer, v interface{}) error {
	switch strings.ToLower(o.output) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("định dạng output không hỗ trợ: %s", o.output)
	}
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Kiểm tra còn file audio tên kiểu cũ cần migrate không",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			needed, err := utils.CheckMigrationNeeded(cmd.Context(), opts.store)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), map[string]bool{"migration_needed": needed})
		},
	}
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Đổi tên file <podcastId>-<sectionId>.wav sang tên hash 8 ký tự",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := utils.MigrateAudioFiles(cmd.Context(), opts.store, opts.log)
			if err != nil {
				return err
			}
			if err := opts.print(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d file migrate thất bại", report.Failed)
			}
			return nil
		},
	}
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "resolve <podcastId> <sectionId>",
		Short: "Tìm URL audio của một section (tên hash trước, legacy sau)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var checker utils.ExistenceChecker = utils.StoreChecker{Store: opts.store}
			if baseURL != "" {
				checker = utils.HTTPChecker{BaseURL: baseURL}
			}
			locator := utils.NewAudioLocator(checker)
			resolved, found := locator.Resolve(cmd.Context(), args[0], args[1])
			if !found {
				resolved = locator.GetAudioURL(cmd.Context(), args[0], args[1])
			}
			return opts.print(cmd.OutOrStdout(), map[string]interface{}{
				"url":   resolved,
				"found": found,
			})
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "dò bằng HEAD tới server đang chạy, ví dụ http://localhost:8080")
	return cmd
}

func newCleanupCmd(opts *rootOptions) *cobra.Command {
	var grace time.Duration
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Xóa một lần các file audio không còn section nào tham chiếu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := config.InitDB(opts.cfg)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("grace") {
				grace = opts.cfg.Audio.OrphanGrace
			}
			job := utils.NewAudioCleanupJob(db, opts.store, 0, grace, opts.log)
			removed, err := job.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), map[string]interface{}{
				"removed": removed,
				"count":   len(removed),
			})
		},
	}
	cmd.Flags().DurationVar(&grace, "grace", 24*time.Hour, "chỉ xóa file cũ hơn khoảng này")
	return cmd
}
