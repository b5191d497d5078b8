package model

// Object ID space of the host simulation. IDs are 16-bit; the top value is
// reserved by the engine as "no object".
const (
	MaxObjectID     uint16 = 65534
	InvalidObjectID uint16 = 65535
)

// SimObject — живой объект симуляции (spawned instance секции).
// Immutable после создания: координатор и enumerators только читают,
// поэтому mutex не нужен.
type SimObject struct {
	id       uint16
	section  string
	levelID  uint16
	location Location
}

// NewSimObject создаёт объект симуляции с указанной секцией и уровнем.
func NewSimObject(id uint16, section string, levelID uint16, loc Location) *SimObject {
	return &SimObject{
		id:       id,
		section:  section,
		levelID:  levelID,
		location: loc,
	}
}

// ID возвращает уникальный object ID (0..MaxObjectID).
func (o *SimObject) ID() uint16 { return o.id }

// Section возвращает имя секции, из которой заспавнен объект.
func (o *SimObject) Section() string { return o.section }

// LevelID возвращает ID уровня, на котором находится объект.
func (o *SimObject) LevelID() uint16 { return o.levelID }

// Location возвращает копию координат объекта (value type).
func (o *SimObject) Location() Location { return o.location }

// OnSameLevel reports whether both objects are on the same level.
// Nil other is treated as "no object" and is never on the same level.
func (o *SimObject) OnSameLevel(other *SimObject) bool {
	if other == nil {
		return false
	}
	return o.levelID == other.levelID
}
