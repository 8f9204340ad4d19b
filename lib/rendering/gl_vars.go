package rendering

import (
	"github.com/fosdem/happlay/lib/utils"
	"github.com/go-gl/gl/v4.1-core/gl"
)

const f32 = 4

// unit quad as a triangle strip: position (x, y), uv (u, v). The vertex
// shader maps it onto the rect uniform.
var quadVertices = []float32{
	0, 0, 0, 1,
	1, 0, 1, 1,
	0, 1, 0, 0,
	1, 1, 1, 0,
}

type programUniforms struct {
	Rect    int32
	UVScale int32
	Tex     int32
}

// GLVars holds the render thread GL objects shared by all movie programs.
type GLVars struct {
	BGColour utils.Colour

	// GL IDs
	VAO uint32
	VBO uint32

	uniforms map[uint32]programUniforms
}

func NewGLVars(bgColour utils.Colour) *GLVars {
	return &GLVars{
		BGColour: bgColour,
		uniforms: make(map[uint32]programUniforms),
	}
}

func (g *GLVars) Start() {
	g.allocate()
	gl.ClearColor(g.BGColour.R, g.BGColour.G, g.BGColour.B, g.BGColour.A)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
}

func (g *GLVars) StartFrame(width, height int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.BindVertexArray(g.VAO)
}

func (g *GLVars) allocate() {
	gl.GenVertexArrays(1, &g.VAO)
	gl.BindVertexArray(g.VAO)

	gl.GenBuffers(1, &g.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*f32, gl.Ptr(quadVertices), gl.STATIC_DRAW)

	// locations are fixed in hap.vert
	stride := int32(4 * f32)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride, 2*f32)
}

func (g *GLVars) uniformsFor(program uint32) programUniforms {
	u, ok := g.uniforms[program]
	if !ok {
		u = programUniforms{
			Rect:    gl.GetUniformLocation(program, gl.Str("rect\x00")),
			UVScale: gl.GetUniformLocation(program, gl.Str("uvScale\x00")),
			Tex:     gl.GetUniformLocation(program, gl.Str("tex\x00")),
		}
		g.uniforms[program] = u
	}
	return u
}

func (g *GLVars) drawQuad(program uint32, texture uint32, q Quad) {
	u := g.uniformsFor(program)

	gl.UseProgram(program)
	gl.Uniform4fv(u.Rect, 1, &q.Rect[0])
	gl.Uniform2fv(u.UVScale, 1, &q.UVScale[0])
	gl.Uniform1i(u.Tex, 0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.BindVertexArray(g.VAO)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
}

func (g *GLVars) Delete() {
	gl.DeleteBuffers(1, &g.VBO)
	gl.DeleteVertexArrays(1, &g.VAO)
}
