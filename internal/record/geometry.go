package record

import (
	"fmt"
	"math"

	"github.com/draftgrid/cadsel/internal/entity"
)

// Geometry column names. The unifier orders these semantically
// (position, then dimensions, measurements, angles, scale, flags).
const (
	ColCenterX       = "CenterX"
	ColCenterY       = "CenterY"
	ColCenterZ       = "CenterZ"
	ColStartX        = "StartX"
	ColStartY        = "StartY"
	ColStartZ        = "StartZ"
	ColEndX          = "EndX"
	ColEndY          = "EndY"
	ColEndZ          = "EndZ"
	ColPositionX     = "PositionX"
	ColPositionY     = "PositionY"
	ColPositionZ     = "PositionZ"
	ColWidth         = "Width"
	ColHeight        = "Height"
	ColRadius        = "Radius"
	ColDiameter      = "Diameter"
	ColCircumference = "Circumference"
	ColArea          = "Area"
	ColLength        = "Length"
	ColArcLength     = "ArcLength"
	ColAngle         = "Angle"
	ColStartAngle    = "StartAngle"
	ColEndAngle      = "EndAngle"
	ColRotation      = "Rotation"
	ColScaleX        = "ScaleX"
	ColScaleY        = "ScaleY"
	ColScaleZ        = "ScaleZ"
	ColClosed        = "Closed"
	ColVertexCount   = "VertexCount"
)

// collectGeometry adds the kind-specific numeric columns. Each derived
// value is computed in its own isolated field so one unsupported property
// never blocks the others.
func (b *builder) collectGeometry(e *entity.Entity) {
	g := e.Geometry
	switch e.Kind {
	case entity.KindCircle:
		b.rec.Set(ColCenterX, entity.NumberCell(g.X))
		b.rec.Set(ColCenterY, entity.NumberCell(g.Y))
		b.rec.Set(ColCenterZ, entity.NumberCell(g.Z))
		b.rec.Set(ColRadius, entity.NumberCell(g.Radius))
		b.setField(ColDiameter, func() (entity.Cell, error) {
			if g.Radius <= 0 {
				return entity.Cell{}, fmt.Errorf("non-positive radius %g", g.Radius)
			}
			return entity.NumberCell(2 * g.Radius), nil
		})
		b.setField(ColCircumference, func() (entity.Cell, error) {
			if g.Radius <= 0 {
				return entity.Cell{}, fmt.Errorf("non-positive radius %g", g.Radius)
			}
			return entity.NumberCell(2 * math.Pi * g.Radius), nil
		})
		b.setField(ColArea, func() (entity.Cell, error) {
			if g.Radius <= 0 {
				return entity.Cell{}, fmt.Errorf("non-positive radius %g", g.Radius)
			}
			return entity.NumberCell(math.Pi * g.Radius * g.Radius), nil
		})

	case entity.KindArc:
		b.rec.Set(ColCenterX, entity.NumberCell(g.X))
		b.rec.Set(ColCenterY, entity.NumberCell(g.Y))
		b.rec.Set(ColCenterZ, entity.NumberCell(g.Z))
		b.rec.Set(ColRadius, entity.NumberCell(g.Radius))
		b.rec.Set(ColStartAngle, entity.NumberCell(g.StartAng))
		b.rec.Set(ColEndAngle, entity.NumberCell(g.EndAng))
		b.setField(ColArcLength, func() (entity.Cell, error) {
			if g.Radius <= 0 {
				return entity.Cell{}, fmt.Errorf("non-positive radius %g", g.Radius)
			}
			sweep := g.EndAng - g.StartAng
			if sweep < 0 {
				sweep += 2 * math.Pi
			}
			return entity.NumberCell(g.Radius * sweep), nil
		})

	case entity.KindLine:
		b.rec.Set(ColStartX, entity.NumberCell(g.X))
		b.rec.Set(ColStartY, entity.NumberCell(g.Y))
		b.rec.Set(ColStartZ, entity.NumberCell(g.Z))
		b.rec.Set(ColEndX, entity.NumberCell(g.EndX))
		b.rec.Set(ColEndY, entity.NumberCell(g.EndY))
		b.rec.Set(ColEndZ, entity.NumberCell(g.EndZ))
		dx, dy, dz := g.EndX-g.X, g.EndY-g.Y, g.EndZ-g.Z
		b.rec.Set(ColLength, entity.NumberCell(math.Sqrt(dx*dx+dy*dy+dz*dz)))
		b.rec.Set(ColAngle, entity.NumberCell(math.Atan2(dy, dx)))

	case entity.KindPolyline, entity.KindHatch:
		b.rec.Set(ColPositionX, entity.NumberCell(g.X))
		b.rec.Set(ColPositionY, entity.NumberCell(g.Y))
		b.rec.Set(ColWidth, entity.NumberCell(g.Width))
		b.rec.Set(ColHeight, entity.NumberCell(g.Height))
		if e.Kind == entity.KindPolyline {
			b.rec.Set(ColClosed, entity.BoolCell(g.Closed))
			b.rec.Set(ColVertexCount, entity.NumberCell(float64(g.Vertices)))
		}

	case entity.KindText, entity.KindMText:
		b.rec.Set(ColPositionX, entity.NumberCell(g.X))
		b.rec.Set(ColPositionY, entity.NumberCell(g.Y))
		b.rec.Set(ColPositionZ, entity.NumberCell(g.Z))
		b.rec.Set(ColHeight, entity.NumberCell(g.Height))
		b.rec.Set(ColRotation, entity.NumberCell(g.Rotation))

	case entity.KindBlockReference:
		b.rec.Set(ColPositionX, entity.NumberCell(g.X))
		b.rec.Set(ColPositionY, entity.NumberCell(g.Y))
		b.rec.Set(ColPositionZ, entity.NumberCell(g.Z))
		b.rec.Set(ColRotation, entity.NumberCell(g.Rotation))
		b.rec.Set(ColScaleX, entity.NumberCell(g.ScaleX))
		b.rec.Set(ColScaleY, entity.NumberCell(g.ScaleY))
		b.rec.Set(ColScaleZ, entity.NumberCell(g.ScaleZ))
	}
}
