// Package quad uploads and draws a quad covering the whole viewport.
package quad

import (
	"github.com/go-gl/gl/v4.6-core/gl"
)

// Corners in normalized device coordinates, counter-clockwise from bottom-left.
var vertices = []float32{
	-1.0, -1.0,
	1.0, -1.0,
	1.0, 1.0,
	-1.0, 1.0,
}

var indices = []uint32{
	0, 1, 2,
	2, 3, 0,
}

// Quad owns the vertex array, vertex buffer and index buffer.
type Quad struct {
	vao uint32
	vbo uint32
	ibo uint32
}

// New uploads the quad. Attribute 0 is the vec2 position.
func New() *Quad {
	q := &Quad{}

	gl.GenVertexArrays(1, &q.vao)
	gl.BindVertexArray(q.vao)

	gl.GenBuffers(1, &q.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, q.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 2*4, 0)

	gl.GenBuffers(1, &q.ibo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, q.ibo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return q
}

// Draw draws the quad with whatever program is current.
func (q *Quad) Draw() {
	gl.BindVertexArray(q.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, int32(len(indices)), gl.UNSIGNED_INT, 0)
}

// Close releases the buffers and the vertex array.
func (q *Quad) Close() {
	if q.ibo != 0 {
		gl.DeleteBuffers(1, &q.ibo)
		q.ibo = 0
	}
	if q.vbo != 0 {
		gl.DeleteBuffers(1, &q.vbo)
		q.vbo = 0
	}
	if q.vao != 0 {
		gl.DeleteVertexArrays(1, &q.vao)
		q.vao = 0
	}
}
