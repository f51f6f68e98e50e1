package edit

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/draftgrid/cadsel/internal/db"
	"github.com/draftgrid/cadsel/internal/entity"
	"github.com/draftgrid/cadsel/internal/errors"
	"github.com/draftgrid/cadsel/internal/record"
)

// maxRenameAttempts bounds the de-duplication suffix search for renames.
const maxRenameAttempts = 50

// applySet mutates one entity field for a column/value pair. The dispatch
// is closed: a column with no registered setter is an UNSUPPORTED_EDIT,
// never a silent no-op. The lease is needed for rename de-duplication.
func applySet(ctx context.Context, lease *db.DocumentLease, e *entity.Entity, column, value string) error {
	lc := strings.ToLower(column)
	switch lc {
	case "name":
		return setName(ctx, lease, e, value)
	case "layer":
		if e.Kind == entity.KindLayer || e.Kind == entity.KindLayout {
			return errors.NewUnsupportedEdit(column, string(e.Kind))
		}
		e.Layer = value
		return nil
	case "color":
		e.Color = value
		return nil
	case "linetype":
		e.Linetype = value
		return nil
	case "contents":
		return setContents(e, value)
	case "tags":
		e.Tags = splitTags(value)
		return nil
	}

	switch {
	case hasFold(column, entity.AttrPrefix):
		return setAttribute(e, column[len(entity.AttrPrefix):], value)
	case hasFold(column, entity.ExtDictPrefix):
		// Extension dictionary columns are read-only summaries.
		return errors.NewUnsupportedEdit(column, string(e.Kind))
	case hasFold(column, entity.XDataPrefix):
		return setXData(e, column[len(entity.XDataPrefix):], value)
	case hasFold(column, entity.TagPrefix):
		return setTagSlot(e, column[len(entity.TagPrefix):], value)
	}

	if set, ok := geometrySetters[lc]; ok {
		if !kindHasGeometryColumn(e.Kind, lc) {
			return errors.NewUnsupportedEdit(column, string(e.Kind))
		}
		return set(e, value)
	}

	return errors.NewUnsupportedEdit(column, string(e.Kind))
}

// setName renames the entity, appending _1, _2, ... while the desired
// name is taken by another entity of the same kind in the same document.
func setName(ctx context.Context, lease *db.DocumentLease, e *entity.Entity, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.NewInvalidRequest("name must not be empty")
	}

	switch e.Kind {
	case entity.KindBlockReference, entity.KindLayout, entity.KindLayer:
	default:
		return errors.NewUnsupportedEdit(entity.ColName, string(e.Kind))
	}

	if e.Kind == entity.KindLayout && strings.EqualFold(e.Name, "Model") {
		return errors.NewInvalidRequest("the Model layout cannot be renamed")
	}

	candidate := value
	for i := 1; ; i++ {
		taken, err := db.NameExistsTx(ctx, lease, e.Kind, candidate, e.Handle)
		if err != nil {
			return err
		}
		if !taken {
			break
		}
		if i > maxRenameAttempts {
			return errors.NewNameConflict(value)
		}
		candidate = fmt.Sprintf("%s_%d", value, i)
	}

	e.Name = candidate
	return nil
}

// setContents writes text body for the textual kinds. Dimension text is
// a measurement override, so it is accepted there too.
func setContents(e *entity.Entity, value string) error {
	switch e.Kind {
	case entity.KindText, entity.KindMText, entity.KindDimension:
		e.Contents = value
		return nil
	}
	return errors.NewUnsupportedEdit(entity.ColContents, string(e.Kind))
}

// setAttribute updates a block attribute matched by tag, case-insensitively.
func setAttribute(e *entity.Entity, tag, value string) error {
	for k := range e.Attributes {
		if strings.EqualFold(k, tag) {
			e.Attributes[k] = value
			return nil
		}
	}
	return errors.NewUnsupportedEdit(entity.AttrPrefix+tag, string(e.Kind))
}

// setXData updates the extended data of one registered application. The
// column suffix is the sanitized application name, so the match runs
// against the sanitized form of each stored key.
func setXData(e *entity.Entity, app, value string) error {
	for k := range e.XData {
		if strings.EqualFold(k, app) || strings.EqualFold(record.SanitizeColumnName(k), app) {
			e.XData[k] = value
			return nil
		}
	}
	return errors.NewUnsupportedEdit(entity.XDataPrefix+app, string(e.Kind))
}

// setTagSlot edits one tag by its 1-based slot. An empty value removes
// the tag; a slot one past the end appends.
func setTagSlot(e *entity.Entity, slot, value string) error {
	n, err := strconv.Atoi(slot)
	if err != nil || n < 1 {
		return errors.NewUnsupportedEdit(entity.TagPrefix+slot, string(e.Kind))
	}
	value = strings.TrimSpace(value)

	switch {
	case n <= len(e.Tags):
		if value == "" {
			e.Tags = append(e.Tags[:n-1], e.Tags[n:]...)
		} else {
			e.Tags[n-1] = value
		}
	case n == len(e.Tags)+1 && value != "":
		e.Tags = append(e.Tags, value)
	default:
		return errors.NewUnsupportedEdit(entity.TagPrefix+slot, string(e.Kind))
	}
	return nil
}

// splitTags parses a comma-joined tag list, dropping empty segments.
func splitTags(value string) []string {
	var tags []string
	for _, t := range strings.Split(value, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// geometrySetters maps editable geometry columns to mutators, keyed by
// lower-cased column name like the rest of the dispatch. Derived
// measurements (Length, Area, Diameter, Circumference, ArcLength, Angle,
// VertexCount) are read-only and deliberately absent.
var geometrySetters = lowerKeys(map[string]func(*entity.Entity, string) error{
	record.ColCenterX:    numSetter(func(g *entity.Geometry, v float64) { g.X = v }),
	record.ColCenterY:    numSetter(func(g *entity.Geometry, v float64) { g.Y = v }),
	record.ColCenterZ:    numSetter(func(g *entity.Geometry, v float64) { g.Z = v }),
	record.ColStartX:     numSetter(func(g *entity.Geometry, v float64) { g.X = v }),
	record.ColStartY:     numSetter(func(g *entity.Geometry, v float64) { g.Y = v }),
	record.ColStartZ:     numSetter(func(g *entity.Geometry, v float64) { g.Z = v }),
	record.ColEndX:       numSetter(func(g *entity.Geometry, v float64) { g.EndX = v }),
	record.ColEndY:       numSetter(func(g *entity.Geometry, v float64) { g.EndY = v }),
	record.ColEndZ:       numSetter(func(g *entity.Geometry, v float64) { g.EndZ = v }),
	record.ColPositionX:  numSetter(func(g *entity.Geometry, v float64) { g.X = v }),
	record.ColPositionY:  numSetter(func(g *entity.Geometry, v float64) { g.Y = v }),
	record.ColPositionZ:  numSetter(func(g *entity.Geometry, v float64) { g.Z = v }),
	record.ColRadius:     numSetter(func(g *entity.Geometry, v float64) { g.Radius = v }),
	record.ColWidth:      numSetter(func(g *entity.Geometry, v float64) { g.Width = v }),
	record.ColHeight:     numSetter(func(g *entity.Geometry, v float64) { g.Height = v }),
	record.ColRotation:   numSetter(func(g *entity.Geometry, v float64) { g.Rotation = v }),
	record.ColStartAngle: numSetter(func(g *entity.Geometry, v float64) { g.StartAng = v }),
	record.ColEndAngle:   numSetter(func(g *entity.Geometry, v float64) { g.EndAng = v }),
	record.ColScaleX:     numSetter(func(g *entity.Geometry, v float64) { g.ScaleX = v }),
	record.ColScaleY:     numSetter(func(g *entity.Geometry, v float64) { g.ScaleY = v }),
	record.ColScaleZ:     numSetter(func(g *entity.Geometry, v float64) { g.ScaleZ = v }),
	record.ColClosed: func(e *entity.Entity, value string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return errors.NewInvalidRequest(fmt.Sprintf("%q is not a boolean", value))
		}
		e.Geometry.Closed = b
		return nil
	},
})

// lowerKeys re-keys a setter table by lower-cased column name.
func lowerKeys(m map[string]func(*entity.Entity, string) error) map[string]func(*entity.Entity, string) error {
	out := make(map[string]func(*entity.Entity, string) error, len(m))
	for k, f := range m {
		out[strings.ToLower(k)] = f
	}
	return out
}

// numSetter adapts a float mutator into a string setter with parsing.
func numSetter(set func(*entity.Geometry, float64)) func(*entity.Entity, string) error {
	return func(e *entity.Entity, value string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return errors.NewInvalidRequest(fmt.Sprintf("%q is not a number", value))
		}
		set(&e.Geometry, v)
		return nil
	}
}

// kindGeometryColumns mirrors the columns each kind exposes so an edit
// never writes a field the kind does not surface.
var kindGeometryColumns = map[entity.Kind]map[string]bool{
	entity.KindCircle: set(record.ColCenterX, record.ColCenterY, record.ColCenterZ, record.ColRadius),
	entity.KindArc: set(record.ColCenterX, record.ColCenterY, record.ColCenterZ,
		record.ColRadius, record.ColStartAngle, record.ColEndAngle),
	entity.KindLine: set(record.ColStartX, record.ColStartY, record.ColStartZ,
		record.ColEndX, record.ColEndY, record.ColEndZ),
	entity.KindPolyline: set(record.ColPositionX, record.ColPositionY,
		record.ColWidth, record.ColHeight, record.ColClosed),
	entity.KindHatch: set(record.ColPositionX, record.ColPositionY,
		record.ColWidth, record.ColHeight),
	entity.KindText: set(record.ColPositionX, record.ColPositionY, record.ColPositionZ,
		record.ColHeight, record.ColRotation),
	entity.KindMText: set(record.ColPositionX, record.ColPositionY, record.ColPositionZ,
		record.ColHeight, record.ColRotation),
	entity.KindBlockReference: set(record.ColPositionX, record.ColPositionY, record.ColPositionZ,
		record.ColRotation, record.ColScaleX, record.ColScaleY, record.ColScaleZ),
}

func kindHasGeometryColumn(k entity.Kind, col string) bool {
	return kindGeometryColumns[k][strings.ToLower(col)]
}

func set(cols ...string) map[string]bool {
	m := make(map[string]bool, len(cols))
	for _, c := range cols {
		m[strings.ToLower(c)] = true
	}
	return m
}

// hasFold reports whether s has the given prefix, case-insensitively.
func hasFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
