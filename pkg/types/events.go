package types

// CellEventType names what happened to a cell.
type CellEventType string

// Cell event kinds.
const (
	CellClick       CellEventType = "click"
	CellDoubleClick CellEventType = "dblclick"
	CellEdit        CellEventType = "edit"
	CellView        CellEventType = "view"
	CellContextMenu CellEventType = "contextmenu"
)

// CellEvent is the payload of the cell channel.
type CellEvent struct {
	Kind        CellEventType
	RowIndex    int
	ColumnIndex int
}
