// ABOUTME: Subcommand implementations for the command line tool
// ABOUTME: Runs conversions with a TUI or streaming logs and previews audio
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ion-space/spaceconvert/internal/discovery"
	"github.com/ion-space/spaceconvert/internal/fetch"
	"github.com/ion-space/spaceconvert/internal/ui"
	"github.com/ion-space/spaceconvert/pkg/audio"
	"github.com/ion-space/spaceconvert/pkg/audio/decode"
	"github.com/ion-space/spaceconvert/pkg/audio/output"
	"github.com/ion-space/spaceconvert/pkg/audio/synth"
	"github.com/ion-space/spaceconvert/pkg/convert"
)

// runJob runs job behind the TUI, or with progress logged to stdout
func runJob(ctx context.Context, useTUI bool, title, outDir string, job ui.Job) error {
	var res *convert.Result
	var err error

	if useTUI {
		pathOf := func(r *convert.Result) string { return filepath.Join(outDir, r.FileName) }
		res, err = ui.Run(ctx, title, pathOf, job)
	} else {
		res, err = job(ctx, convert.LogProgress)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s (%d bytes, %v)\n", filepath.Join(outDir, res.FileName), res.Size, res.Duration)
	return nil
}

func runDemo(ctx context.Context, args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	common.register(fs)
	title := fs.String("title", "", "Title used for the file name")
	url := fs.String("url", "", "Video URL used to label the job")
	out := fs.String("out", "", "Output directory (default: convert.output_dir)")
	delay := fs.Duration("delay", -1, "Pause after each progress step (default: convert.step_delay)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	useTUI := !common.noTUI
	cfg, closeLog, err := common.load(useTUI)
	if err != nil {
		return err
	}
	defer closeLog()

	if *url != "" {
		videoID, err := convert.ExtractVideoID(*url)
		if err != nil {
			return err
		}
		log.Printf("Video ID: %s", videoID)
	}

	outDir := cfg.Convert.OutputDir
	if *out != "" {
		outDir = *out
	}
	stepDelay := cfg.Convert.StepDelay
	if *delay >= 0 {
		stepDelay = *delay
	}

	c := convert.New(convert.Config{
		StepDelay: stepDelay,
		Sink:      &convert.DirSink{Dir: outDir},
	})

	return runJob(ctx, useTUI, *title, outDir, func(ctx context.Context, progress convert.ProgressReporter) (*convert.Result, error) {
		return c.WithProgress(progress).Demo(ctx, *title)
	})
}

func runConvert(ctx context.Context, args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	common.register(fs)
	in := fs.String("in", "", "Input file path or http(s) URL")
	codec := fs.String("codec", "", "Input codec: mp3, flac or wav (default: from extension)")
	title := fs.String("title", "", "Output name (default: input file name)")
	out := fs.String("out", "", "Output directory (default: convert.output_dir)")
	sampleRate := fs.Int("rate", -1, "Output sample rate, 0 keeps the source rate (default: convert.target_rate)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("-in is required")
	}

	useTUI := !common.noTUI
	cfg, closeLog, err := common.load(useTUI)
	if err != nil {
		return err
	}
	defer closeLog()

	path, inputCodec, err := resolveInput(ctx, cfg.Convert.CacheDir, *in)
	if err != nil {
		return err
	}
	if *codec != "" {
		inputCodec = *codec
	}

	name := *title
	if name == "" {
		base := filepath.Base(strings.Split(*in, "?")[0])
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	outDir := cfg.Convert.OutputDir
	if *out != "" {
		outDir = *out
	}
	targetRate := cfg.Convert.TargetRate
	if *sampleRate >= 0 {
		targetRate = *sampleRate
	}

	c := convert.New(convert.Config{
		TargetRate: targetRate,
		Sink:       &convert.DirSink{Dir: outDir},
	})

	return runJob(ctx, useTUI, name, outDir, func(ctx context.Context, progress convert.ProgressReporter) (*convert.Result, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()

		return c.WithProgress(progress).Transcode(ctx, f, inputCodec, name)
	})
}

// resolveInput downloads URLs into the cache and detects the codec of local files
func resolveInput(ctx context.Context, cacheDir, in string) (string, string, error) {
	if strings.HasPrefix(in, "http://") || strings.HasPrefix(in, "https://") {
		fetcher, err := fetch.New(cacheDir)
		if err != nil {
			return "", "", err
		}
		src, err := fetcher.Fetch(ctx, in)
		if err != nil {
			return "", "", err
		}
		return src.Path, src.Codec, nil
	}

	codec, err := decode.CodecFromPath(in)
	if err != nil {
		return "", "", err
	}
	return in, codec, nil
}

func runPlay(ctx context.Context, args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	common.register(fs)
	in := fs.String("in", "", "Audio file to play (default: the placeholder chord)")
	duration := fs.Duration("duration", synth.DefaultDuration, "How long to play the chord")
	volume := fs.Int("volume", 100, "Volume 0-100")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, closeLog, err := common.load(false)
	if err != nil {
		return err
	}
	defer closeLog()

	var src output.Source
	playFor := *duration

	if *in != "" {
		buf, err := decodeFile(*in)
		if err != nil {
			return err
		}
		bs, err := output.NewBufferSource(buf)
		if err != nil {
			return err
		}
		src, playFor = bs, buf.Duration()
		log.Printf("Playing %s: %d Hz, %d channels, %v", *in, buf.SampleRate, buf.Channels(), playFor)
	} else {
		src = synth.NewChordSource(synth.DefaultParams())
		log.Printf("Playing placeholder chord for %v", playFor)
	}

	out := output.NewOto()
	out.SetVolume(*volume)
	defer out.Close()

	return output.Play(ctx, out, src, playFor)
}

func decodeFile(path string) (*audio.Buffer, error) {
	codec, err := decode.CodecFromPath(path)
	if err != nil {
		return nil, err
	}

	decoder, err := decode.New(audio.Format{Codec: codec})
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return decoder.Decode(f)
}

func runServers(ctx context.Context, args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("servers", flag.ContinueOnError)
	common.register(fs)
	timeout := fs.Duration("timeout", 3*time.Second, "How long to listen for answers")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, closeLog, err := common.load(false)
	if err != nil {
		return err
	}
	defer closeLog()

	servers, err := discovery.Lookup(ctx, *timeout)
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		fmt.Println("No servers found")
		return nil
	}

	for _, s := range servers {
		fmt.Printf("%s\t%s\t%s\n", s.Name, s.URL(), s.Version)
	}
	return nil
}
