// secscan validates prefetch declarations in .ltx configs without a game
// session: modders run it after editing sections to catch bad modes and
// dangling model references before they show up as in-game log noise.
//
// Usage:
//
//	go run ./cmd/secscan -root gamedata/configs
//	go run ./cmd/secscan -root gamedata/configs/system.ltx -quiet
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/udisondev/xrprefetch/internal/gamedata"
	"github.com/udisondev/xrprefetch/internal/prefetch"
)

func main() {
	root := flag.String("root", "gamedata/configs", ".ltx file or directory to scan")
	quiet := flag.Bool("quiet", false, "print only problems")
	flag.Parse()

	// Findings go to stdout; loader warnings stay on stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	report, err := scan(*root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if !*quiet {
		for _, line := range report.declarations {
			fmt.Println("ok  ", line)
		}
	}
	for _, line := range report.problems {
		fmt.Println("FAIL", line)
	}

	fmt.Printf("sections scanned: %d\n", report.sections)
	fmt.Printf("declarations:     %d\n", len(report.declarations))
	fmt.Printf("problems:         %d\n", len(report.problems))

	if len(report.problems) > 0 {
		os.Exit(1)
	}
}

type scanReport struct {
	sections     int
	declarations []string
	problems     []string
}

func scan(root string) (*scanReport, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	var registry *gamedata.Registry
	if info.IsDir() {
		registry, err = gamedata.LoadDir(root)
	} else {
		registry, err = gamedata.LoadFile(root)
	}
	if err != nil {
		return nil, fmt.Errorf("loading configs: %w", err)
	}

	report := &scanReport{}
	registry.EachSection(func(name string) bool {
		report.sections++
		checkWorld(registry, name, report)
		checkHUD(registry, name, report)
		return true
	})

	return report, nil
}

func checkWorld(registry *gamedata.Registry, section string, report *scanReport) {
	raw, ok := registry.ReadString(section, prefetch.FieldPrefetchWorld)
	if !ok {
		return
	}

	mode, err := prefetch.ParseMode(raw)
	if err != nil {
		report.problems = append(report.problems,
			fmt.Sprintf("%s: %v", section, err))
		return
	}

	visual, ok := registry.ReadString(section, prefetch.FieldVisual)
	if !ok || visual == "" {
		report.problems = append(report.problems,
			fmt.Sprintf("%s: world prefetch declared but no %s field", section, prefetch.FieldVisual))
		return
	}

	report.declarations = append(report.declarations,
		fmt.Sprintf("%s world %s -> %s", section, mode, visual))
}

func checkHUD(registry *gamedata.Registry, section string, report *scanReport) {
	raw, ok := registry.ReadString(section, prefetch.FieldPrefetchHUD)
	if !ok {
		return
	}

	mode, err := prefetch.ParseMode(raw)
	if err != nil {
		report.problems = append(report.problems,
			fmt.Sprintf("%s: %v", section, err))
		return
	}

	hudSection, ok := registry.ReadString(section, prefetch.FieldHUD)
	if !ok || hudSection == "" {
		report.problems = append(report.problems,
			fmt.Sprintf("%s: HUD prefetch declared but no %s field", section, prefetch.FieldHUD))
		return
	}
	if !registry.HasSection(hudSection) {
		report.problems = append(report.problems,
			fmt.Sprintf("%s: %s references missing section %q", section, prefetch.FieldHUD, hudSection))
		return
	}

	visual, ok := registry.ReadString(hudSection, prefetch.FieldItemVisual)
	if !ok || visual == "" {
		report.problems = append(report.problems,
			fmt.Sprintf("%s: hud section %q has no %s field", section, hudSection, prefetch.FieldItemVisual))
		return
	}

	report.declarations = append(report.declarations,
		fmt.Sprintf("%s hud %s -> %s", section, mode, visual))
}
