package object

// Text is a line drawn over the canvas at a 1-based terminal position.
type Text struct {
	X     int
	Y     int
	Value string
}

// Draw writes the text and marks the covered cells so the canvas repaints
// them once the text is gone.
func (t Text) Draw(ctx DrawContext) error {
	if t.Value == "" {
		return nil
	}
	x := max(t.X, 1)
	y := max(t.Y, 1)
	ctx.Writer.WriteAt(x, y, t.Value)
	ctx.Canvas.MarkTextDirty(x, y, len([]rune(t.Value)))
	return nil
}
