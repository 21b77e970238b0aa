package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/theapemachine/qbloch"
	"github.com/theapemachine/qbloch/internal/render"
)

type options struct {
	tokens []string
	shots  int
	seed   *uint64
	angle  float64
}

// parseOptions reads the command line. seed stays nil unless -seed was given.
func parseOptions(args []string) (options, error) {
	var opts options

	fs := flag.NewFlagSet("qbloch", flag.ContinueOnError)
	gates := fs.String("gates", "", `comma separated gate tokens, e.g. "h,rz(pi/4),x"`)
	fs.IntVar(&opts.shots, "shots", 0, "measurement trials, 0 to skip sampling")
	fs.Func("seed", "sampling seed, random when not set", func(s string) error {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}
		opts.seed = &v
		return nil
	})
	angle := fs.String("angle", "pi/2", "default angle of RX, RY and RZ without one")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	theta, err := qbloch.ParseAngle(*angle)
	if err != nil {
		return options{}, fmt.Errorf("angle: %w", err)
	}
	opts.angle = theta

	for _, token := range strings.Split(*gates, ",") {
		if token = strings.TrimSpace(token); token != "" {
			opts.tokens = append(opts.tokens, token)
		}
	}
	return opts, nil
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		log.Fatalf("flags: %v", err)
	}

	config := qbloch.NewConfig()
	config.DefaultAngle = opts.angle

	if opts.shots > config.MaxTrials {
		log.Fatalf("shots: %d exceeds the maximum of %d", opts.shots, config.MaxTrials)
	}

	sequence, err := qbloch.ParseGates(opts.tokens)
	if err != nil {
		log.Fatalf("gates: %v", err)
	}

	engine := qbloch.NewEngine(config)
	state, err := engine.ApplySequence(sequence)
	if err != nil {
		log.Fatalf("apply: %v", err)
	}

	report := render.Report{
		Gates:        sequence,
		DefaultAngle: engine.DefaultAngle(),
		State:        state,
		Bloch:        engine.ToBloch(state),
	}

	if opts.shots > 0 {
		var measureOpts []qbloch.MeasureOption
		if opts.seed != nil {
			measureOpts = append(measureOpts, qbloch.WithSeed(*opts.seed))
		}

		counts, err := engine.Measure(state, opts.shots, measureOpts...)
		if err != nil {
			log.Fatalf("measure: %v", err)
		}
		report.Counts = &counts
	}

	fmt.Fprintln(os.Stdout, render.Render(report))
}
