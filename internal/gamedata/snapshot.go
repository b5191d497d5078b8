package gamedata

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/udisondev/xrprefetch/internal/ltx"
	"github.com/udisondev/xrprefetch/internal/model"
)

// Snapshot field names. Every section carrying an id field describes one
// live simulation object; other sections are ignored.
const (
	snapFieldID      = "id"
	snapFieldSection = "section"
	snapFieldLevelID = "level_id"
	snapFieldX       = "x"
	snapFieldY       = "y"
	snapFieldZ       = "z"
)

// LoadSimObjects парсит snapshot LTX и возвращает живые объекты симуляции.
// Malformed записи логируются и пропускаются (non-fatal).
func LoadSimObjects(path string) ([]*model.SimObject, error) {
	f, err := ltx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading sim snapshot %s: %w", path, err)
	}

	objects := make([]*model.SimObject, 0, f.SectionCount())
	skipped := 0

	for _, name := range f.SectionNames() {
		sec, _ := f.Section(name)
		if _, ok := sec.Field(snapFieldID); !ok {
			slog.Debug("snapshot section without id, ignoring", "section", name)
			continue
		}

		obj, err := simObjectFromSection(sec)
		if err != nil {
			slog.Warn("skipping malformed snapshot entry", "entry", name, "error", err)
			skipped++
			continue
		}
		objects = append(objects, obj)
	}

	slog.Info("sim snapshot loaded", "path", path, "objects", len(objects), "skipped", skipped)
	return objects, nil
}

func simObjectFromSection(sec *ltx.Section) (*model.SimObject, error) {
	id, err := readUint16(sec, snapFieldID)
	if err != nil {
		return nil, err
	}
	if id > model.MaxObjectID {
		return nil, fmt.Errorf("object id %d above maximum %d", id, model.MaxObjectID)
	}

	section, ok := sec.Field(snapFieldSection)
	if !ok || section == "" {
		return nil, fmt.Errorf("missing %s field", snapFieldSection)
	}

	levelID, err := readUint16(sec, snapFieldLevelID)
	if err != nil {
		return nil, err
	}

	x := readInt32Default(sec, snapFieldX, 0)
	y := readInt32Default(sec, snapFieldY, 0)
	z := readInt32Default(sec, snapFieldZ, 0)

	return model.NewSimObject(id, section, levelID, model.NewLocation(x, y, z)), nil
}

func readUint16(sec *ltx.Section, key string) (uint16, error) {
	raw, ok := sec.Field(key)
	if !ok {
		return 0, fmt.Errorf("missing %s field", key)
	}
	v, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q: %w", key, raw, err)
	}
	return uint16(v), nil
}

func readInt32Default(sec *ltx.Section, key string, def int32) int32 {
	raw, ok := sec.Field(key)
	if !ok {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		slog.Warn("bad coordinate in snapshot entry, using default", "key", key, "value", raw)
		return def
	}
	return int32(v)
}
