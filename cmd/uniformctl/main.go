// uniformctl is the console counterpart of the original browser client: it
// acquires one image (file read or frame re-encode), submits it for
// analysis, and can download the session report.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/example/uniform-control/internal/acquire"
	"github.com/example/uniform-control/internal/client"
)

const defaultTimeout = 60 * time.Second

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "analyze":
		os.Exit(runAnalyze(os.Args[2:]))
	case "report":
		os.Exit(runReport(os.Args[2:]))
	case "session":
		os.Exit(runSession(os.Args[2:]))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  uniformctl analyze [-server URL] (-file PATH | -frame PATH)
  uniformctl report  [-server URL] [-o PATH]
  uniformctl session [-server URL]`)
}

func runAnalyze(args []string) int {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	server := fs.String("server", "http://localhost:8080", "service base URL")
	filePath := fs.String("file", "", "send the file as-is")
	framePath := fs.String("frame", "", "decode the image and re-encode as a JPEG capture")
	fs.Parse(args)

	source, err := buildSource(*filePath, *framePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	payload, err := source.Acquire()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	verdict, err := client.New(*server, defaultTimeout).Analyze(ctx, payload)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	status := "PERMITIR PASO"
	if !verdict.IsCompliant {
		status = "DETENER - UNIFORME INCORRECTO"
	}
	fmt.Printf("%s\n", status)
	fmt.Printf("Uniforme:  %s\n", verdict.UniformType)
	fmt.Printf("Confianza: %.0f%%\n", verdict.Confidence*100)
	fmt.Printf("Hora:      %s\n", verdict.Timestamp)

	if !verdict.IsCompliant {
		return 1
	}
	return 0
}

func buildSource(filePath, framePath string) (acquire.Source, error) {
	switch {
	case filePath != "" && framePath != "":
		return nil, fmt.Errorf("use either -file or -frame, not both")
	case filePath != "":
		return acquire.FileSource{Path: filePath}, nil
	case framePath != "":
		f, err := os.Open(framePath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		frame, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode frame: %w", err)
		}
		return acquire.FrameSource{Frame: frame}, nil
	default:
		return nil, fmt.Errorf("one of -file or -frame is required")
	}
}

func runReport(args []string) int {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	server := fs.String("server", "http://localhost:8080", "service base URL")
	out := fs.String("o", "", "write the report to a file instead of stdout")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	text, err := client.New(*server, defaultTimeout).Report(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	if *out == "" {
		os.Stdout.Write(text)
		return 0
	}
	if err := os.WriteFile(*out, text, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func runSession(args []string) int {
	fs := flag.NewFlagSet("session", flag.ExitOnError)
	server := fs.String("server", "http://localhost:8080", "service base URL")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	snapshot, err := client.New(*server, defaultTimeout).Session(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	os.Stdout.Write(snapshot)
	fmt.Println()
	return 0
}
