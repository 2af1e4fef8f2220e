// Command enhance fetches one image and writes inverted, contrast
// rescaled, log tone mapped and histogram equalized versions of it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/wbrown/imgenhance"
	"github.com/wbrown/imgenhance/imageutil"
)

func main() {
	os.Exit(run())
}

func run() int {
	input := flag.String("input", "",
		"URL or path of the input image (required)")
	output := flag.String("output", "output",
		"Directory to write the enhanced images to")
	contrast := flag.Float64("contrast", 1.5,
		"Contrast rescale factor (must be positive)")
	format := flag.String("format", "jpeg",
		"Output format: jpeg, png, gif, tiff or bmp")
	quality := flag.Int("quality", imageutil.DefaultQuality,
		"JPEG quality (1-100)")
	timeout := flag.Duration("timeout", 30*time.Second,
		"Timeout for fetching the input, 0 to disable")
	parallel := flag.Bool("parallel", false,
		"Run the transforms concurrently")
	keepGoing := flag.Bool("keep-going", false,
		"Write every artifact that can be written instead of stopping at the first failure")
	sheet := flag.Bool("sheet", false,
		"Also write a labelled contact sheet (contact_sheet.png)")
	verbose := flag.Bool("v", false,
		"Verbose (debug) logging")
	flag.Parse()

	if *input == "" {
		fmt.Println("Please provide the image using the -input flag")
		flag.PrintDefaults()
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	imgenhance.SetLogger(slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: level})))

	outFormat, err := imageutil.ParseFormat(*format)
	if err != nil {
		fmt.Printf("Invalid output format: %v\n", err)
		return 2
	}

	e := imgenhance.NewEnhancer(
		imgenhance.WithSource(*input),
		imgenhance.WithOutputDir(*output),
		imgenhance.WithContrastFactor(*contrast),
		imgenhance.WithFormat(outFormat),
		imgenhance.WithQuality(*quality),
		imgenhance.WithTimeout(*timeout),
		imgenhance.WithParallel(*parallel),
		imgenhance.WithKeepGoing(*keepGoing),
		imgenhance.WithContactSheet(*sheet),
	)
	if err := e.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	report, err := e.Run(ctx)
	if report != nil {
		fmt.Printf("Source: %s (%s, %dx%d)\n",
			report.Source, report.SourceFormat, report.Width, report.Height)
		for _, res := range report.Results {
			printResult(res)
		}
		if report.Sheet != nil {
			printResult(*report.Sheet)
		}
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}

	fmt.Printf("All images written to %s in %v\n", *output, time.Since(start))
	return 0
}

func printResult(res imgenhance.Result) {
	if res.Err != nil {
		fmt.Printf("  %-20s FAILED: %v\n", res.Name, res.Err)
		return
	}
	fmt.Printf("  %-20s %s (%d bytes, %v)\n", res.Name, res.Path, res.Bytes, res.Duration)
}
