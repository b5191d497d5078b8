// Package prefetch decides which models to warm up at session start.
//
// Item sections opt in through two config fields: lewd_prefetch_world
// queues the section's own visual, lewd_prefetch_hud queues the
// item_visual of the section's hud sub-section. The field value selects
// a Mode that gates the dispatch on the live simulation state.
//
// The coordinator runs a single pass over every known section, normally
// on the actor's first update when the simulation is fully populated.
// Every problem it meets is logged and skipped; a pass never fails.
package prefetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/xrprefetch/internal/events"
	"github.com/udisondev/xrprefetch/internal/model"
	"github.com/udisondev/xrprefetch/internal/sim"
)

// Config fields the coordinator reads.
const (
	// FieldPrefetchWorld selects the prefetch mode for the section's world model.
	FieldPrefetchWorld = "lewd_prefetch_world"

	// FieldPrefetchHUD selects the prefetch mode for the section's HUD model.
	FieldPrefetchHUD = "lewd_prefetch_hud"

	// FieldVisual holds the world model path of a section.
	FieldVisual = "visual"

	// FieldHUD names the sub-section describing the first-person view.
	FieldHUD = "hud"

	// FieldItemVisual holds the HUD model path inside a hud sub-section.
	FieldItemVisual = "item_visual"
)

// handlerName keys the coordinator's event subscription so repeated
// registration replaces rather than duplicates it.
const handlerName = "prefetch_coordinator"

// SectionSource interface for reading the resolved config registry
type SectionSource interface {
	EachSection(fn func(name string) bool)
	ReadString(section, field string) (string, bool)
	HasSection(name string) bool
}

// SimulationView interface for querying live simulation objects
type SimulationView interface {
	FindFirst(match sim.Matcher) (*model.SimObject, bool)
	Actor() (*model.SimObject, bool)
}

// AssetLoader interface for fire-and-forget model warmup
type AssetLoader interface {
	PrefetchModel(path string)
}

// Registrar interface for subscribing to session events
type Registrar interface {
	Subscribe(event events.Event, name string, handler events.Handler)
}

// Stats summarizes a completed pass.
type Stats struct {
	Sections int // sections scanned
	World    int // world models dispatched
	HUD      int // HUD models dispatched
	Skipped  int // predicates that evaluated false
	Errors   int // non-fatal problems logged
}

// Dispatched returns the total number of models queued.
func (s Stats) Dispatched() int {
	return s.World + s.HUD
}

// Coordinator scans the section registry and queues models for prefetch.
type Coordinator struct {
	sections SectionSource
	view     SimulationView
	assets   AssetLoader
}

// NewCoordinator creates a coordinator over the given registry, simulation
// view and asset loader.
func NewCoordinator(sections SectionSource, view SimulationView, assets AssetLoader) *Coordinator {
	return &Coordinator{
		sections: sections,
		view:     view,
		assets:   assets,
	}
}

// Register subscribes the pass to the actor's first update. The dispatcher
// fires that event once per session, which makes the pass once per session.
func (c *Coordinator) Register(reg Registrar) {
	reg.Subscribe(events.ActorFirstUpdate, handlerName, func(ctx context.Context) error {
		c.RunPass(ctx)
		return nil
	})
}

// RunPass scans every section once and queues the models whose prefetch
// predicates hold. All problems are logged and counted, never returned;
// ctx cancellation stops the scan early.
func (c *Coordinator) RunPass(ctx context.Context) Stats {
	start := time.Now()

	var st Stats
	canceled := false

	c.sections.EachSection(func(name string) bool {
		if ctx.Err() != nil {
			canceled = true
			return false
		}

		st.Sections++
		c.evalWorld(name, &st)
		c.evalHUD(name, &st)
		return true
	})

	if canceled {
		slog.Warn("prefetch pass canceled", "scanned", st.Sections)
	}

	slog.Info("prefetch pass complete",
		"sections", st.Sections,
		"dispatched", st.Dispatched(),
		"world", st.World,
		"hud", st.HUD,
		"skipped", st.Skipped,
		"errors", st.Errors,
		"duration", time.Since(start))

	return st
}

// evalWorld handles the lewd_prefetch_world field of one section.
func (c *Coordinator) evalWorld(section string, st *Stats) {
	raw, ok := c.sections.ReadString(section, FieldPrefetchWorld)
	if !ok {
		return
	}

	mode, err := ParseMode(raw)
	if err != nil {
		st.Errors++
		slog.Error("bad world prefetch field", "section", section, "error", err)
		return
	}

	dispatch, err := c.wanted(mode, section)
	if err != nil {
		st.Errors++
		slog.Error("world prefetch predicate failed", "section", section, "mode", mode, "error", err)
		return
	}
	if !dispatch {
		st.Skipped++
		return
	}

	path, ok := c.sections.ReadString(section, FieldVisual)
	if !ok || path == "" {
		st.Errors++
		slog.Error("prefetch section has no visual", "section", section)
		return
	}

	c.assets.PrefetchModel(path)
	st.World++
	slog.Debug("world model queued", "section", section, "path", path, "mode", mode)
}

// evalHUD handles the lewd_prefetch_hud field of one section. The model
// path lives one hop away: section.hud names a sub-section whose
// item_visual is the actual asset.
func (c *Coordinator) evalHUD(section string, st *Stats) {
	raw, ok := c.sections.ReadString(section, FieldPrefetchHUD)
	if !ok {
		return
	}

	mode, err := ParseMode(raw)
	if err != nil {
		st.Errors++
		slog.Error("bad HUD prefetch field", "section", section, "error", err)
		return
	}

	dispatch, err := c.wanted(mode, section)
	if err != nil {
		st.Errors++
		slog.Error("HUD prefetch predicate failed", "section", section, "mode", mode, "error", err)
		return
	}
	if !dispatch {
		st.Skipped++
		return
	}

	hudSection, ok := c.sections.ReadString(section, FieldHUD)
	if !ok || hudSection == "" {
		st.Errors++
		slog.Error("prefetch section has no hud reference", "section", section)
		return
	}
	if !c.sections.HasSection(hudSection) {
		st.Errors++
		slog.Error("hud sub-section missing from registry", "section", section, "hud", hudSection)
		return
	}

	path, ok := c.sections.ReadString(hudSection, FieldItemVisual)
	if !ok || path == "" {
		st.Errors++
		slog.Error("hud sub-section has no item_visual", "section", section, "hud", hudSection)
		return
	}

	c.assets.PrefetchModel(path)
	st.HUD++
	slog.Debug("HUD model queued", "section", section, "hud", hudSection, "path", path, "mode", mode)
}

// wanted evaluates a mode's predicate against the simulation.
func (c *Coordinator) wanted(mode Mode, section string) (bool, error) {
	switch mode {
	case ModeAlways:
		return true, nil

	case ModeExists:
		_, found := c.view.FindFirst(func(obj *model.SimObject) bool {
			return obj.Section() == section
		})
		return found, nil

	case ModeNearby:
		actor, ok := c.view.Actor()
		if !ok {
			return false, errors.New("actor is not in simulation")
		}
		_, found := c.view.FindFirst(func(obj *model.SimObject) bool {
			return obj.Section() == section && obj.OnSameLevel(actor)
		})
		return found, nil
	}

	return false, fmt.Errorf("unhandled mode %d", int(mode))
}
