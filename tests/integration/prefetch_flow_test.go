package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/udisondev/xrprefetch/internal/assets"
	"github.com/udisondev/xrprefetch/internal/events"
	"github.com/udisondev/xrprefetch/internal/gamedata"
	"github.com/udisondev/xrprefetch/internal/model"
	"github.com/udisondev/xrprefetch/internal/prefetch"
	"github.com/udisondev/xrprefetch/internal/sim"
)

// PrefetchFlowSuite прогоняет полный путь: снапшот в БД → мир →
// координатор → загрузка моделей с диска.
type PrefetchFlowSuite struct {
	SnapshotSuite
}

// TestSessionFlow тестирует сессию целиком, как её собирает cmd/prefetch.
func (s *PrefetchFlowSuite) TestSessionFlow() {
	t := s.T()

	// Снапшот симуляции в БД: актёр и автомат на одном уровне.
	err := s.repo.ReplaceAll(s.ctx, []*model.SimObject{
		simObject(0, "actor", 1),
		simObject(512, "wpn_ak74", 1),
	})
	s.Require().NoError(err)

	// Реестр секций из .ltx.
	dir := t.TempDir()
	ltxPath := filepath.Join(dir, "system.ltx")
	ltx := "[wpn_ak74]\n" +
		"lewd_prefetch_world = nearby\n" +
		"visual = dynamics\\weapons\\wpn_ak74\\wpn_ak74\n" +
		"lewd_prefetch_hud = always\n" +
		"hud = wpn_ak74_hud\n" +
		"\n" +
		"[wpn_ak74_hud]\n" +
		"item_visual = dynamics\\weapons\\wpn_ak74\\wpn_ak74_hud\n"
	s.Require().NoError(os.WriteFile(ltxPath, []byte(ltx), 0o644))

	registry, err := gamedata.LoadFile(ltxPath)
	s.Require().NoError(err)

	// Модели на диске.
	modelRoot := t.TempDir()
	for _, rel := range []string{
		"dynamics/weapons/wpn_ak74/wpn_ak74.ogf",
		"dynamics/weapons/wpn_ak74/wpn_ak74_hud.ogf",
	} {
		full := filepath.Join(modelRoot, filepath.FromSlash(rel))
		s.Require().NoError(os.MkdirAll(filepath.Dir(full), 0o755))
		s.Require().NoError(os.WriteFile(full, []byte(rel), 0o644))
	}

	// Мир из снапшота БД.
	loaded, err := s.repo.LoadAll(s.ctx)
	s.Require().NoError(err)

	world := sim.NewWorld()
	world.Seed(loaded)
	world.SetActorID(0)

	view, err := sim.NewView(world)
	s.Require().NoError(err)

	// Пул загрузки моделей.
	loader := assets.NewPrefetcher(assets.Options{ModelRoot: modelRoot})
	done := make(chan error, 1)
	go func() { done <- loader.Start(context.Background()) }()

	// Координатор срабатывает на первом апдейте актёра.
	dispatcher := events.NewDispatcher()
	coordinator := prefetch.NewCoordinator(registry, view, loader)
	coordinator.Register(dispatcher)

	dispatcher.Fire(s.ctx, events.GameStart)
	dispatcher.Fire(s.ctx, events.ActorSpawn)
	dispatcher.Fire(s.ctx, events.ActorFirstUpdate)

	loader.Close()
	s.Require().NoError(<-done)

	st := loader.Stats()
	s.Equal(int64(2), st.Queued)
	s.Equal(int64(2), st.Loaded)
	s.Equal(int64(0), st.Failed)

	entry, ok := loader.CachedEntry(`dynamics\weapons\wpn_ak74\wpn_ak74`)
	s.Require().True(ok)
	s.Equal("dynamics/weapons/wpn_ak74/wpn_ak74.ogf", entry.Path)

	_, ok = loader.CachedEntry(`dynamics\weapons\wpn_ak74\wpn_ak74_hud`)
	s.True(ok)
}

// TestPrefetchFlowSuite запускает PrefetchFlowSuite.
func TestPrefetchFlowSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	t.Parallel()

	suite.Run(t, new(PrefetchFlowSuite))
}
