// Command djcore is the CLI front end for the analysis and planning
// engine: analyze a single file, compare two analyzed files into a
// transition plan, or scan a library directory for candidate tracks.
// Wired on alecthomas/kong the way the teacher pack's jivetalking CLI
// is, generalized from a flat flag struct to subcommands with their
// own Run methods, since djcore exposes three distinct verbs.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/vividhyeok/djcore/internal/applog"
	"github.com/vividhyeok/djcore/internal/config"
	"github.com/vividhyeok/djcore/internal/feature"
	"github.com/vividhyeok/djcore/internal/planner"
	"github.com/vividhyeok/djcore/internal/scanner"
)

var version = "dev"

// CLI is the top-level kong command tree.
type CLI struct {
	Debug bool `help:"Enable debug logging." short:"d"`

	Analyze AnalyzeCmd `cmd:"" help:"Analyze a single audio file and print its feature record."`
	Plan    PlanCmd    `cmd:"" help:"Compare two analyzed feature records and propose a transition."`
	Scan    ScanCmd    `cmd:"" help:"Scan a library directory for candidate tracks."`
}

// AnalyzeCmd runs the analyzer over one file.
type AnalyzeCmd struct {
	Path           string  `arg:"" help:"Path to the audio file." type:"existingfile"`
	MaxAnalyzeTime float64 `help:"Per-window analysis budget, in seconds." default:"60"`
	IncludeTail    bool    `help:"Also acquire a seeked tail window." default:"true" negatable:""`
	FFmpegPath     string  `help:"Override the ffmpeg binary used for decoding."`
}

func (c *AnalyzeCmd) Run(cfg config.Settings) error {
	rec, err := feature.Analyze(c.Path, feature.Options{
		MaxAnalyzeTime: orDefault(c.MaxAnalyzeTime, cfg.MaxAnalyzeTime),
		IncludeTail:    c.IncludeTail,
		FFmpegPath:     orString(c.FFmpegPath, cfg.FFmpegPath),
	})
	if err != nil {
		return fmt.Errorf("analyze %s: %w", c.Path, err)
	}
	return json.NewEncoder(os.Stdout).Encode(rec)
}

// PlanCmd loads two previously-produced feature records as JSON and
// proposes a transition between them.
type PlanCmd struct {
	CurrentRecord string `arg:"" help:"Path to the current track's feature record JSON." type:"existingfile"`
	NextRecord    string `arg:"" help:"Path to the next track's feature record JSON." type:"existingfile"`
	LongMix       bool   `help:"Also compute the long-mix automation plan."`
}

func (c *PlanCmd) Run() error {
	var current, next feature.Record
	if err := readJSON(c.CurrentRecord, &current); err != nil {
		return err
	}
	if err := readJSON(c.NextRecord, &next); err != nil {
		return err
	}

	proposal, ok := planner.Plan(recordToTrackInput(current), recordToTrackInput(next))
	if !ok {
		return fmt.Errorf("plan: no finite transition duration for %s -> %s", c.CurrentRecord, c.NextRecord)
	}

	out := map[string]any{"proposal": proposal}
	if c.LongMix {
		if adv, advOK := planner.PlanLongMix(recordToTrackInput(current), recordToTrackInput(next)); advOK {
			out["long_mix"] = adv
		}
	}
	return json.NewEncoder(os.Stdout).Encode(out)
}

// ScanCmd walks a library directory and prints candidate entries.
type ScanCmd struct {
	Root string `arg:"" help:"Library root directory." type:"existingdir"`
}

func (c *ScanCmd) Run() error {
	entries, err := scanner.Walk(c.Root)
	if err != nil {
		return fmt.Errorf("scan %s: %w", c.Root, err)
	}
	return json.NewEncoder(os.Stdout).Encode(entries)
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("djcore"),
		kong.Description("Offline audio analysis and DJ-style transition planning."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	if cli.Debug {
		applog.SetLevel("debug")
	}

	cfg := config.Default()
	if err := ctx.Run(cfg); err != nil {
		applog.Error("command failed", "err", err)
		ctx.FatalIfErrorf(err)
	}
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return json.Unmarshal(data, v)
}

func recordToTrackInput(r feature.Record) planner.TrackInput {
	return planner.TrackInput{
		Duration:      r.Duration,
		BPM:           r.BPM,
		HasBPM:        r.HasBPM,
		FirstBeat:     r.FirstBeatPos,
		Confidence:    r.BPMConfidence,
		CutOut:        r.CutOutPos,
		HasCutOut:     r.HasCutOut,
		FadeOut:       r.FadeOutPos,
		CamelotKey:    r.CamelotKey,
		HasCamelotKey: r.HasCamelotKey,
		KeyRoot:       r.KeyRoot,
		HasKeyRoot:    r.HasKeyRoot,
		VocalIn:       r.VocalInPos,
		HasVocalIn:    r.HasVocalIn,
		DropPos:       r.DropPos,
		HasDropPos:    r.HasDropPos,
	}
}

func orDefault(v, fallback float64) float64 {
	if v > 0 {
		return v
	}
	return fallback
}

func orString(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
