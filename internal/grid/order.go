package grid

import (
	"sort"
	"strconv"
	"strings"

	"github.com/draftgrid/cadsel/internal/entity"
	"github.com/draftgrid/cadsel/internal/record"
)

// Column classes, in display order.
const (
	classIdentity = iota
	classTag
	classGeometry
	classAttr
	classXData
	classExtDict
	classExternal
	classParent
	classOther
	classDocumentPath
)

// identityOrder fixes the leading display columns.
var identityOrder = []string{
	entity.ColName,
	entity.ColContents,
	entity.ColCategory,
	entity.ColLayer,
	entity.ColLayout,
	entity.ColDocument,
	entity.ColColor,
	entity.ColLinetype,
	entity.ColHandle,
}

// geometryOrder fixes the geometry columns semantically: position, then
// dimensions, measurements, angles, scale, then flags and counts.
var geometryOrder = []string{
	record.ColCenterX, record.ColCenterY, record.ColCenterZ,
	record.ColStartX, record.ColStartY, record.ColStartZ,
	record.ColEndX, record.ColEndY, record.ColEndZ,
	record.ColPositionX, record.ColPositionY, record.ColPositionZ,
	record.ColWidth, record.ColHeight,
	record.ColRadius, record.ColDiameter, record.ColCircumference,
	record.ColArea, record.ColLength, record.ColArcLength,
	record.ColAngle, record.ColStartAngle, record.ColEndAngle,
	record.ColRotation,
	record.ColScaleX, record.ColScaleY, record.ColScaleZ,
	record.ColClosed, record.ColVertexCount,
}

var identityRank = indexMap(identityOrder)
var geometryRank = indexMap(geometryOrder)

func indexMap(names []string) map[string]int {
	m := make(map[string]int, len(names))
	for i, n := range names {
		m[n] = i
	}
	return m
}

// OrderColumns sorts column names by the fixed priority scheme:
// identity columns first, then tag columns in numeric suffix order,
// geometry columns in semantic order, attribute columns alphabetically,
// extended-data columns alphabetically, the IsExternal marker, parent
// block columns in depth order, any remaining columns alphabetically,
// and DocumentPath always last.
func OrderColumns(columns []string) []string {
	out := make([]string, len(columns))
	copy(out, columns)
	sort.SliceStable(out, func(i, j int) bool {
		ci, ri := classify(out[i])
		cj, rj := classify(out[j])
		if ci != cj {
			return ci < cj
		}
		if ri != rj {
			return ri < rj
		}
		return out[i] < out[j]
	})
	return out
}

// classify returns a column's class and its rank within that class.
// Rank -1 means "order alphabetically within the class".
func classify(col string) (class int, rank int) {
	if col == entity.ColDocumentPath {
		return classDocumentPath, 0
	}
	if col == entity.ColIsExternal {
		return classExternal, 0
	}
	if r, ok := identityRank[col]; ok {
		return classIdentity, r
	}
	if r, ok := geometryRank[col]; ok {
		return classGeometry, r
	}
	if n, ok := numericSuffix(col, entity.TagPrefix); ok {
		return classTag, n
	}
	if n, ok := numericSuffix(col, entity.ParentPrefix); ok {
		return classParent, n
	}
	if strings.HasPrefix(col, entity.AttrPrefix) {
		return classAttr, -1
	}
	if strings.HasPrefix(col, entity.ExtDictPrefix) {
		return classExtDict, -1
	}
	if strings.HasPrefix(col, entity.XDataPrefix) {
		return classXData, -1
	}
	return classOther, -1
}

// numericSuffix parses "<prefix><n>" column names.
func numericSuffix(col, prefix string) (int, bool) {
	if !strings.HasPrefix(col, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(col[len(prefix):])
	if err != nil {
		return 0, false
	}
	return n, true
}
