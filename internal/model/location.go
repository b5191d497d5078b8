package model

// Location представляет координаты в игровом мире.
// Value type, передаётся по значению (immutable).
type Location struct {
	X int32
	Y int32
	Z int32
}

// NewLocation создаёт Location с указанными координатами.
func NewLocation(x, y, z int32) Location {
	return Location{X: x, Y: y, Z: z}
}

// DistanceSquared возвращает квадрат расстояния до другой точки (без sqrt для производительности).
func (l Location) DistanceSquared(other Location) int64 {
	dx := int64(l.X - other.X)
	dy := int64(l.Y - other.Y)
	dz := int64(l.Z - other.Z)
	return dx*dx + dy*dy + dz*dz
}
