package cmd

import (
	"fmt"
	"sort"

	"TemplePlayer/storage"

	"github.com/spf13/cobra"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶检查",
	Long:  `连接MinIO音乐存储桶，并显示前缀下的文件统计信息。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix := minioPrefix
		if !cmd.Flags().Changed("prefix") {
			prefix = cfg.MinioPrefix
		}
		fmt.Printf("MinIO配置: %s, Bucket: %s, 前缀: %q\n", cfg.MinioEndpoint, cfg.MinioBucket, prefix)

		client, err := storage.NewMinioClient(cfg)
		if err != nil {
			return fmt.Errorf("创建MinIO客户端失败: %w", err)
		}

		stats, err := storage.CollectStats(cmd.Context(), client, cfg.MinioBucket, prefix)
		if err != nil {
			return err
		}

		fmt.Printf("\n文件总数: %d\n", stats.TotalObjects)
		fmt.Printf("总大小: %s\n", storage.FormatSize(stats.TotalSize))
		if !stats.LastModified.IsZero() {
			fmt.Printf("最后修改: %s\n", stats.LastModified.Format("2006-01-02 15:04:05"))
		}

		exts := make([]string, 0, len(stats.ByExtension))
		for ext := range stats.ByExtension {
			exts = append(exts, ext)
		}
		sort.Strings(exts)
		for _, ext := range exts {
			fmt.Printf("  %-8s %d\n", ext, stats.ByExtension[ext])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "object prefix (default $MINIO_PREFIX)")
}
