package board

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/kira/internal/domain"
)

// Modality is the input device driving a gesture.
type Modality int

const (
	ModalityPointer Modality = iota + 1
	ModalityTouch
)

func (m Modality) String() string {
	switch m {
	case ModalityPointer:
		return "pointer"
	case ModalityTouch:
		return "touch"
	default:
		return "unknown"
	}
}

type DragState int

const (
	StateIdle DragState = iota
	StateDragging
)

// SensorConfig holds the activation gates that separate a drag from a tap
// or a scroll.
type SensorConfig struct {
	// PointerDistance is the movement in pixels a pointer must travel.
	PointerDistance float64
	// TouchDelay is how long a touch must be held.
	TouchDelay time.Duration
	// TouchTolerance is the movement in pixels a held touch may drift
	// before it counts as a scroll.
	TouchTolerance float64
}

// DefaultSensorConfig returns the stock activation gates.
func DefaultSensorConfig() SensorConfig {
	return SensorConfig{
		PointerDistance: 8,
		TouchDelay:      250 * time.Millisecond,
		TouchTolerance:  5,
	}
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetColumn
	TargetTask
)

// DropTarget is what the pointer is over: nothing, a column, or a task.
// The zero value is TargetNone.
type DropTarget struct {
	kind   TargetKind
	column domain.ColumnKey
	task   *domain.Task
}

func ColumnTarget(key domain.ColumnKey) DropTarget {
	return DropTarget{kind: TargetColumn, column: key}
}

func TaskTarget(t *domain.Task) DropTarget {
	if t == nil {
		return DropTarget{}
	}
	return DropTarget{kind: TargetTask, column: t.Column, task: t}
}

func (d DropTarget) Kind() TargetKind { return d.kind }

// Column is the column key of a column target, or the column of a task target.
func (d DropTarget) Column() domain.ColumnKey { return d.column }

// Task is the hovered task of a task target, nil otherwise.
func (d DropTarget) Task() *domain.Task { return d.task }

func (d DropTarget) same(o DropTarget) bool {
	if d.kind != o.kind || d.column != o.column {
		return false
	}
	if d.kind == TargetTask {
		return d.task.ID == o.task.ID
	}
	return true
}

// InputEvent is one raw pointer or touch sample.
type InputEvent struct {
	Modality Modality
	// TaskID and Column identify the grabbed task on PointerDown.
	TaskID uuid.UUID
	Column domain.ColumnKey
	Point  Point
	At     time.Time
	// Over is the droppable region under the input, zero when outside.
	Over DropTarget
}

// DragSession exists between a DragStart and its DragEnd.
type DragSession struct {
	TaskID       uuid.UUID
	SourceColumn domain.ColumnKey
	Modality     Modality
	StartedAt    time.Time
	Target       DropTarget
}

type DragStartEvent struct {
	Session DragSession
}

type DragOverEvent struct {
	Session DragSession
	Target  DropTarget
}

// DragEndEvent always ends the session. A TargetNone target means the
// drop landed outside any droppable region.
type DragEndEvent struct {
	Session DragSession
	Target  DropTarget
}

type DragHandler interface {
	OnDragStart(DragStartEvent)
	OnDragOver(DragOverEvent)
	OnDragEnd(DragEndEvent)
}

type gesture struct {
	modality Modality
	taskID   uuid.UUID
	column   domain.ColumnKey
	origin   Point
	start    time.Time
}

// DragController turns raw input into drag events. It is driven from a
// single event loop and is not safe for concurrent use.
type DragController struct {
	cfg     SensorConfig
	handler DragHandler

	state   DragState
	pending *gesture
	session *DragSession
}

func NewDragController(cfg SensorConfig, handler DragHandler) *DragController {
	return &DragController{cfg: cfg, handler: handler}
}

func (c *DragController) State() DragState { return c.state }

// Session returns a copy of the active drag session.
func (c *DragController) Session() (DragSession, bool) {
	if c.session == nil {
		return DragSession{}, false
	}
	return *c.session, true
}

// PointerDown begins a pending gesture. Ignored while another gesture is
// pending or a drag is active.
func (c *DragController) PointerDown(ev InputEvent) {
	if c.state != StateIdle || c.pending != nil || ev.TaskID == uuid.Nil {
		return
	}
	c.pending = &gesture{
		modality: ev.Modality,
		taskID:   ev.TaskID,
		column:   ev.Column,
		origin:   ev.Point,
		start:    ev.At,
	}
	c.evaluate(ev)
}

// PointerMove advances activation of a pending gesture, or updates the
// hover target of an active drag.
func (c *DragController) PointerMove(ev InputEvent) {
	switch {
	case c.state == StateDragging:
		if ev.Modality != c.session.Modality {
			return
		}
		c.hover(ev.Over)
	case c.pending != nil:
		if ev.Modality != c.pending.modality {
			return
		}
		c.evaluate(ev)
	}
}

// Tick fires the long-press timer of a pending touch without movement.
func (c *DragController) Tick(now time.Time) {
	g := c.pending
	if g == nil || g.modality != ModalityTouch {
		return
	}
	if now.Sub(g.start) >= c.cfg.TouchDelay {
		c.activate(InputEvent{Modality: g.modality, Point: g.origin, At: now})
	}
}

// PointerUp ends the gesture. An active drag ends with the release event's
// Over as its target; a pending gesture is discarded as a tap.
func (c *DragController) PointerUp(ev InputEvent) {
	if c.state != StateDragging {
		if c.pending != nil && ev.Modality == c.pending.modality {
			c.pending = nil
		}
		return
	}
	if ev.Modality != c.session.Modality {
		return
	}
	c.end(ev.Over)
}

// Cancel aborts any gesture. An active drag ends without a target.
func (c *DragController) Cancel() {
	c.pending = nil
	if c.state == StateDragging {
		c.end(DropTarget{})
	}
}

func (c *DragController) evaluate(ev InputEvent) {
	g := c.pending
	moved := g.origin.distance(ev.Point)

	switch g.modality {
	case ModalityPointer:
		if moved >= c.cfg.PointerDistance {
			c.activate(ev)
		}
	case ModalityTouch:
		if moved > c.cfg.TouchTolerance {
			// Drifted before the hold completed: a scroll, not a drag.
			c.pending = nil
			return
		}
		if ev.At.Sub(g.start) >= c.cfg.TouchDelay {
			c.activate(ev)
		}
	default:
		c.pending = nil
	}
}

func (c *DragController) activate(ev InputEvent) {
	g := c.pending
	c.pending = nil
	c.state = StateDragging
	c.session = &DragSession{
		TaskID:       g.taskID,
		SourceColumn: g.column,
		Modality:     g.modality,
		StartedAt:    ev.At,
	}
	c.handler.OnDragStart(DragStartEvent{Session: *c.session})

	if ev.Over.Kind() != TargetNone {
		c.hover(ev.Over)
	}
}

func (c *DragController) hover(target DropTarget) {
	if c.session.Target.same(target) {
		return
	}
	c.session.Target = target
	c.handler.OnDragOver(DragOverEvent{Session: *c.session, Target: target})
}

func (c *DragController) end(target DropTarget) {
	s := *c.session
	s.Target = target
	c.session = nil
	c.state = StateIdle
	c.handler.OnDragEnd(DragEndEvent{Session: s, Target: target})
}
