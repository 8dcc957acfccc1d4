package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	upscaler "github.com/mranderson01901234/upscaler10x-sub004"
	"github.com/mranderson01901234/upscaler10x-sub004/internal/codec"
	"github.com/mranderson01901234/upscaler10x-sub004/internal/progress"
)

var (
	inputPath  string
	outputPath string
	scale      float64

	algorithmName     string
	formatName        string
	quality           int
	compression       string
	concurrency       int
	noParallel        bool
	forceCPU          bool
	forceGPU          bool
	faceEnhanceFlag   string
	memoryBudgetGPU   int64
	memoryBudgetCPU   int64
	logLevel          string
	showProgressTicks bool
)

var rootCmd = &cobra.Command{
	Use:   "upscale",
	Short: "Resolution-independent image upscaling",
	Long: `upscale decodes an image, resamples it at an arbitrary scale factor,
and re-encodes the result, choosing between direct, tiled, progressive, and
face-enhance execution plans and between CPU and GPU kernels depending on
image size, requested scale, and available memory.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := parseLogLevel(logLevel)
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		upscaler.SetLogger(slog.New(handler))
	},
	RunE: runUpscale,
}

func init() {
	rootCmd.Flags().StringVar(&inputPath, "input", "", "input image path (required)")
	rootCmd.Flags().StringVar(&outputPath, "output", "out.png", "output image path")
	rootCmd.Flags().Float64Var(&scale, "scale", 2.0, "target scale factor, >= 1.0")

	rootCmd.Flags().StringVar(&algorithmName, "algorithm", "auto", "resampling algorithm: auto, bilinear, bicubic, lanczos2, lanczos3, fractional-1.1x, fractional-1.5x, progressive")
	rootCmd.Flags().StringVar(&formatName, "format", "png", "output container: png, jpeg, webp, tiff")
	rootCmd.Flags().IntVar(&quality, "quality", 90, "JPEG/WebP quality, 1-100")
	rootCmd.Flags().StringVar(&compression, "compression", "lzw", `TIFF compression: "lzw" or "none"`)
	rootCmd.Flags().IntVar(&concurrency, "parallel-concurrency", 4, "tile worker count, 1-16")
	rootCmd.Flags().BoolVar(&noParallel, "no-parallel", false, "disable tile-level parallelism")
	rootCmd.Flags().BoolVar(&forceCPU, "force-cpu", false, "force CPU execution")
	rootCmd.Flags().BoolVar(&forceGPU, "force-gpu", false, "force GPU execution, fail if unavailable")
	rootCmd.Flags().StringVar(&faceEnhanceFlag, "face-enhance", "auto", `face-enhance bridge: "auto", "on", or "off"`)
	rootCmd.Flags().Int64Var(&memoryBudgetGPU, "memory-budget-gpu", 0, "GPU memory budget override, bytes (0 = auto-detect)")
	rootCmd.Flags().Int64Var(&memoryBudgetCPU, "memory-budget-cpu", 0, "CPU memory budget override, bytes (0 = auto-detect)")
	rootCmd.Flags().BoolVar(&showProgressTicks, "progress", false, "print progress events to stderr as they arrive")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	rootCmd.MarkFlagRequired("input")
}

func parseLogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func runUpscale(cmd *cobra.Command, args []string) error {
	input, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	container, err := parseContainer(formatName)
	if err != nil {
		return err
	}
	algo, err := upscaler.ParseAlgorithmOverride(algorithmName)
	if err != nil {
		return err
	}

	opts := []upscaler.Option{
		upscaler.WithAlgorithm(algo),
		upscaler.WithFormat(container),
		upscaler.WithQuality(quality),
		upscaler.WithCompression(compression),
		upscaler.WithParallelConcurrency(concurrency),
		upscaler.WithParallelProcessing(!noParallel),
	}
	if forceCPU {
		opts = append(opts, upscaler.WithForceCPU())
	}
	if forceGPU {
		opts = append(opts, upscaler.WithForceGPU())
	}
	switch faceEnhanceFlag {
	case "on":
		opts = append(opts, upscaler.WithFaceEnhance(true))
	case "off":
		opts = append(opts, upscaler.WithFaceEnhance(false))
	}
	if memoryBudgetGPU > 0 {
		opts = append(opts, upscaler.WithMemoryBudgetGPU(memoryBudgetGPU))
	}
	if memoryBudgetCPU > 0 {
		opts = append(opts, upscaler.WithMemoryBudgetCPU(memoryBudgetCPU))
	}

	sess, err := upscaler.New(input, scale, opts...)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer sess.Close()

	ctx := context.Background()
	if showProgressTicks {
		go printProgress(sess.Progress())
	}

	out, err := sess.Run(ctx)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	slog.Info("upscale complete", "input", inputPath, "output", outputPath, "scale", scale, "bytes", len(out))
	fmt.Printf("wrote %s (%d bytes)\n", outputPath, len(out))
	return nil
}

func printProgress(events <-chan progress.Event) {
	for ev := range events {
		fmt.Fprintf(os.Stderr, "[%3d%%] %s %s\n", ev.Percent, ev.Stage, ev.Message)
	}
}

func parseContainer(name string) (codec.Container, error) {
	switch name {
	case "png":
		return codec.ContainerPNG, nil
	case "jpeg", "jpg":
		return codec.ContainerJPEG, nil
	case "webp":
		return codec.ContainerWebP, nil
	case "tiff":
		return codec.ContainerTIFF, nil
	default:
		return 0, fmt.Errorf("unknown output format %q", name)
	}
}
