// Package main 提供媒体库管理 CLI：摄取、查询、删除视频与维护标签。
// 所有操作直接走服务层，和后台任务共享同一套依赖装配。
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kratos/kratos/v2/log"
	_ "go.uber.org/automaxprocs"

	loader "github.com/streamfox/services-media/internal/infrastructure/config_loader"
	"github.com/streamfox/services-media/internal/models/po"
	"github.com/streamfox/services-media/internal/services"
)

type mediactlApp struct {
	Ingestion *services.IngestionService
	Queries   *services.VideoQueryService
	Commands  *services.VideoCommandService
	Watch     *services.WatchService
	Logger    log.Logger
}

const usageText = `usage: mediactl [-conf path] <command> [flags]

commands:
  ingest        -video <file> [-name t] [-codec c] [-format f] [-bitrate n] [-thumbnail file]
  thumbnail     -id <video id> -file <image file>
  list          [-all]
  labels        (enumerate stored asset ids)
  info          -id <video id>
  by-tag        -tag <value>
  delete        -id <video id> [-reason text]
  tag           -id <video id> -value <tag>
  untag         -id <video id> -value <tag>
  rmtag         -value <tag>
  playback-url  -id <video id>
`

func main() {
	confFlag := flag.String("conf", "", "config path or directory, eg: -conf configs/config.yaml")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usageText) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := wireMediactl(ctx, loader.Params{ConfPath: *confFlag})
	if err != nil {
		fmt.Fprintf(os.Stderr, "mediactl: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := run(ctx, app, args[0], args[1:]); err != nil {
		log.NewHelper(app.Logger).Errorf("command %s failed: %v", args[0], err)
		fmt.Fprintf(os.Stderr, "mediactl %s: %v\n", args[0], err)
		os.Exit(1)
	}
}

func run(ctx context.Context, app *mediactlApp, command string, args []string) error {
	switch command {
	case "ingest":
		return runIngest(ctx, app, args)
	case "thumbnail":
		return runThumbnail(ctx, app, args)
	case "list":
		return runList(ctx, app, args)
	case "labels":
		return runLabels(ctx, app)
	case "info":
		return runInfo(ctx, app, args)
	case "by-tag":
		return runByTag(ctx, app, args)
	case "delete":
		return runDelete(ctx, app, args)
	case "tag":
		return runTag(ctx, app, args)
	case "untag":
		return runUntag(ctx, app, args)
	case "rmtag":
		return runRmTag(ctx, app, args)
	case "playback-url":
		return runPlaybackURL(ctx, app, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func runIngest(ctx context.Context, app *mediactlApp, args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	name := fs.String("name", "", "video title")
	codec := fs.String("codec", string(po.CodecH264), "codec: h264, vp9, av1")
	format := fs.String("format", string(po.FormatMP4), "container format: mp4, webm, mkv")
	bitrate := fs.Int64("bitrate", 0, "declared bitrate in bit/s")
	videoPath := fs.String("video", "", "path to the video file (required)")
	thumbPath := fs.String("thumbnail", "", "optional thumbnail file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *videoPath == "" {
		return fmt.Errorf("-video is required")
	}

	f, err := os.Open(*videoPath)
	if err != nil {
		return fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	input := services.IngestVideoInput{
		Codec:   po.VideoCodec(*codec),
		Format:  po.VideoFormat(*format),
		Content: f,
	}
	if *name != "" {
		input.Name = name
	}
	if *bitrate > 0 {
		input.BitrateBPS = bitrate
	}

	created, err := app.Ingestion.IngestVideo(ctx, input)
	if err != nil {
		return err
	}

	if *thumbPath != "" {
		tf, openErr := os.Open(*thumbPath)
		if openErr != nil {
			return fmt.Errorf("video %s ingested, but thumbnail open failed: %w", created.ID, openErr)
		}
		defer tf.Close()
		if thumbErr := app.Ingestion.IngestThumbnail(ctx, created.ID, tf); thumbErr != nil {
			return fmt.Errorf("video %s ingested, but thumbnail failed: %w", created.ID, thumbErr)
		}
	}
	return printJSON(created)
}

func runThumbnail(ctx context.Context, app *mediactlApp, args []string) error {
	fs := flag.NewFlagSet("thumbnail", flag.ExitOnError)
	rawID := fs.String("id", "", "video id (required)")
	filePath := fs.String("file", "", "thumbnail image file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(*rawID)
	if err != nil {
		return err
	}
	if *filePath == "" {
		return fmt.Errorf("-file is required")
	}

	f, err := os.Open(*filePath)
	if err != nil {
		return fmt.Errorf("open thumbnail file: %w", err)
	}
	defer f.Close()

	if err := app.Ingestion.IngestThumbnail(ctx, id, f); err != nil {
		return err
	}
	fmt.Printf("thumbnail saved for video %s\n", id)
	return nil
}

func runList(ctx context.Context, app *mediactlApp, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	all := fs.Bool("all", false, "include pending videos whose asset is not ready yet")
	if err := fs.Parse(args); err != nil {
		return err
	}

	videos, err := app.Queries.ListVideos(ctx, !*all)
	if err != nil {
		return err
	}
	return printJSON(videos)
}

func runLabels(ctx context.Context, app *mediactlApp) error {
	ids, err := app.Queries.ListStoredLabels(ctx)
	if err != nil {
		return err
	}
	return printJSON(ids)
}

func runInfo(ctx context.Context, app *mediactlApp, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	rawID := fs.String("id", "", "video id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(*rawID)
	if err != nil {
		return err
	}

	detail, err := app.Queries.GetVideoInfo(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(detail)
}

func runByTag(ctx context.Context, app *mediactlApp, args []string) error {
	fs := flag.NewFlagSet("by-tag", flag.ExitOnError)
	tag := fs.String("tag", "", "tag value (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tag == "" {
		return fmt.Errorf("-tag is required")
	}

	videos, err := app.Queries.ListVideosByTag(ctx, *tag)
	if err != nil {
		return err
	}
	return printJSON(videos)
}

func runDelete(ctx context.Context, app *mediactlApp, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	rawID := fs.String("id", "", "video id (required)")
	reason := fs.String("reason", "", "optional deletion reason recorded on the event")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(*rawID)
	if err != nil {
		return err
	}

	input := services.DeleteVideoInput{ID: id}
	if *reason != "" {
		input.Reason = reason
	}
	deleted, err := app.Commands.DeleteVideo(ctx, input)
	if err != nil {
		return err
	}
	return printJSON(deleted)
}

func runTag(ctx context.Context, app *mediactlApp, args []string) error {
	fs := flag.NewFlagSet("tag", flag.ExitOnError)
	rawID := fs.String("id", "", "video id (required)")
	value := fs.String("value", "", "tag value (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(*rawID)
	if err != nil {
		return err
	}

	tag, err := app.Commands.AttachTag(ctx, id, *value)
	if err != nil {
		return err
	}
	return printJSON(tag)
}

func runUntag(ctx context.Context, app *mediactlApp, args []string) error {
	fs := flag.NewFlagSet("untag", flag.ExitOnError)
	rawID := fs.String("id", "", "video id (required)")
	value := fs.String("value", "", "tag value (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(*rawID)
	if err != nil {
		return err
	}

	if err := app.Commands.DetachTag(ctx, id, *value); err != nil {
		return err
	}
	fmt.Printf("tag %q detached from video %s\n", *value, id)
	return nil
}

func runRmTag(ctx context.Context, app *mediactlApp, args []string) error {
	fs := flag.NewFlagSet("rmtag", flag.ExitOnError)
	value := fs.String("value", "", "tag value (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *value == "" {
		return fmt.Errorf("-value is required")
	}

	if err := app.Commands.DeleteTag(ctx, *value); err != nil {
		return err
	}
	fmt.Printf("tag %q deleted\n", *value)
	return nil
}

func runPlaybackURL(ctx context.Context, app *mediactlApp, args []string) error {
	fs := flag.NewFlagSet("playback-url", flag.ExitOnError)
	rawID := fs.String("id", "", "video id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(*rawID)
	if err != nil {
		return err
	}

	url, expiresAt, err := app.Watch.SignedPlaybackURL(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{"url": url, "expires_at": expiresAt})
}

func parseID(raw string) (po.VideoID, error) {
	if raw == "" {
		return 0, fmt.Errorf("-id is required")
	}
	id, err := po.ParseVideoID(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid video id %q: %w", raw, err)
	}
	return id, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
